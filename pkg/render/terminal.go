package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/pacfo/pkg/interp"
)

var titler = cases.Title(language.English)

// Terminal prints styled lines and, when live, a progress footer that is
// redrawn under the history as percent and counter events arrive.
type Terminal struct {
	theme  Theme
	footer *footer
	bar    progress.Model
	live   bool

	percent   int
	counter   int
	total     int
	canCancel bool
	drawn     bool
}

// NewTerminal creates a terminal renderer.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	theme := opts.Theme
	if theme.Name == "" {
		theme = DefaultTheme(nil)
	}
	f := newFooter(w, opts.Width, opts.Height)
	return &Terminal{
		theme:     theme,
		footer:    f,
		bar:       newBar(theme, f.width),
		live:      opts.Live,
		canCancel: true,
	}
}

func newBar(theme Theme, width int) progress.Model {
	barWidth := width / 2
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 10 {
		barWidth = 10
	}
	opts := []progress.Option{progress.WithWidth(barWidth)}
	switch {
	case theme.Mono:
		opts = append(opts, progress.WithFillCharacters('#', '-'))
	case theme.BarFrom == theme.BarTo:
		opts = append(opts, progress.WithSolidFill(theme.BarFrom))
	default:
		opts = append(opts, progress.WithGradient(theme.BarFrom, theme.BarTo))
	}
	return progress.New(opts...)
}

// Render implements Renderer.
func (t *Terminal) Render(ev interp.Event) error {
	switch ev.Kind {
	case interp.KindText, interp.KindPassthrough:
		t.clear()
		for _, line := range ParseMarkup(ev.Text) {
			t.footer.PrintLine(t.theme.RenderLine(line))
		}
		if ev.Total > 0 {
			t.counter, t.total = ev.Counter, ev.Total
		}
		t.redraw()
	case interp.KindPercent:
		t.percent = ev.Percent
		t.clear()
		t.redraw()
	case interp.KindTotal:
		t.total = ev.Total
	case interp.KindCanCancel:
		t.canCancel = ev.CanCancel
		t.clear()
		t.redraw()
	case interp.KindFinished:
		t.clear()
		t.live = false
		t.footer.PrintLine(t.summary(ev))
	}
	return nil
}

// Close erases the footer.
func (t *Terminal) Close() error {
	t.clear()
	return nil
}

func (t *Terminal) clear() {
	if t.drawn {
		t.footer.Erase()
		t.drawn = false
	}
}

func (t *Terminal) redraw() {
	if !t.live || (t.percent == 0 && t.total == 0) {
		return
	}
	t.footer.Draw([]string{t.statusLine()})
	t.drawn = true
}

func (t *Terminal) statusLine() string {
	line := t.bar.ViewAs(float64(t.percent) / 100)
	if t.total > 0 {
		line += " " + t.theme.Muted.Render("("+strconv.Itoa(t.counter)+"/"+strconv.Itoa(t.total)+")")
	}
	if !t.canCancel {
		line += " " + t.theme.Warning.Render("finishing, cannot cancel")
	}
	return line
}

func (t *Terminal) summary(ev interp.Event) string {
	text := fmt.Sprintf("%s exit, code %d", titler.String(ev.Status.String()), ev.ExitCode)
	if ev.ExitCode != 0 || ev.Status == interp.CrashExit {
		return t.theme.Error.Bold(true).Render(text)
	}
	return t.theme.Action.Bold(true).Render(text)
}
