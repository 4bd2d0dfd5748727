// Package dashboard is the full-screen view of a running transaction: a
// scrolling log, a progress bar and a cancel key.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/render"
)

// Options configure the dashboard.
type Options struct {
	Theme render.Theme
	Title string
	// Interrupts receives os.Interrupt when the user presses the cancel key
	// while the transaction can still be cancelled.
	Interrupts chan<- os.Signal
	// Input and Output override the program's stdin and stdout.
	Input  io.Reader
	Output io.Writer
}

// Work runs the transaction, sending every event to sink, and returns the
// final exit code.
type Work func(sink interp.Sink) (int, error)

// Run shows the dashboard while work runs and returns work's exit code.
func Run(ctx context.Context, opts Options, work Work) (int, error) {
	popts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}
	program := tea.NewProgram(newModel(opts), popts...)
	go func() {
		code, err := work(func(ev interp.Event) { program.Send(eventMsg(ev)) })
		program.Send(doneMsg{code: code, err: err})
	}()
	finalModel, err := program.Run()
	if err != nil {
		return 1, err
	}
	m := finalModel.(model)
	return m.exitCode, m.err
}

type eventMsg interp.Event

type doneMsg struct {
	code int
	err  error
}

type model struct {
	opts     Options
	viewport viewport.Model
	bar      progress.Model
	lines    []string

	percent    int
	counter    int
	total      int
	canCancel  bool
	cancelling bool
	refused    bool
	finished   string

	done     bool
	exitCode int
	err      error

	ready  bool
	width  int
	height int
}

func newModel(opts Options) model {
	if opts.Theme.Name == "" {
		opts.Theme = render.DefaultTheme(nil)
	}
	if opts.Title == "" {
		opts.Title = "pacfo"
	}
	return model{
		opts:      opts,
		viewport:  viewport.New(0, 0),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		canCancel: true,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.done {
				return m, tea.Quit
			}
		case "ctrl+c", "c":
			if m.done {
				return m, tea.Quit
			}
			m.requestCancel()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4 // title, bar, status, help
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		m.bar.Width = msg.Width - 16
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
		m.ready = true
		m.refreshViewport()
	case eventMsg:
		m.apply(interp.Event(msg))
	case doneMsg:
		m.done = true
		m.exitCode = msg.code
		m.err = msg.err
	}
	return m, nil
}

func (m *model) apply(ev interp.Event) {
	switch ev.Kind {
	case interp.KindText, interp.KindPassthrough:
		for _, line := range render.ParseMarkup(ev.Text) {
			m.lines = append(m.lines, m.opts.Theme.RenderLine(line))
		}
		if ev.Total > 0 {
			m.counter, m.total = ev.Counter, ev.Total
		}
		m.refreshViewport()
	case interp.KindPercent:
		m.percent = ev.Percent
	case interp.KindTotal:
		m.total = ev.Total
	case interp.KindCanCancel:
		m.canCancel = ev.CanCancel
		if ev.CanCancel {
			m.refused = false
		}
	case interp.KindFinished:
		m.finished = fmt.Sprintf("%s exit, code %d", ev.Status, ev.ExitCode)
	}
}

func (m *model) requestCancel() {
	if m.cancelling {
		return
	}
	if !m.canCancel {
		m.refused = true
		return
	}
	if m.opts.Interrupts != nil {
		select {
		case m.opts.Interrupts <- os.Interrupt:
		default:
		}
	}
	m.cancelling = true
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "Starting..."
	}
	theme := m.opts.Theme
	title := theme.Bold.Render(m.opts.Title)

	bar := m.bar.ViewAs(float64(m.percent) / 100)
	if m.total > 0 {
		bar += " " + theme.Muted.Render("("+strconv.Itoa(m.counter)+"/"+strconv.Itoa(m.total)+")")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.viewport.View(),
		bar,
		m.statusLine(),
		theme.Muted.Render(m.help()),
	)
}

func (m model) statusLine() string {
	theme := m.opts.Theme
	switch {
	case m.done && m.finished != "":
		if m.exitCode != 0 {
			return theme.Error.Render(m.finished)
		}
		return theme.Action.Render(m.finished)
	case m.cancelling:
		return theme.Warning.Render("cancelling...")
	case m.refused:
		return theme.Warning.Render("the transaction can no longer be cancelled")
	}
	return ""
}

func (m model) help() string {
	if m.done {
		return "↑/↓ scroll • q quit"
	}
	if !m.canCancel {
		return "↑/↓ scroll"
	}
	return "↑/↓ scroll • ctrl+c cancel"
}
