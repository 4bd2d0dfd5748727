package dashboard

import (
	"io"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/render"
)

func newTestModel(interrupts chan<- os.Signal) model {
	m := newModel(Options{Theme: render.MonoTheme(lipgloss.NewRenderer(io.Discard)), Interrupts: interrupts})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	return next.(model)
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func TestModel_AppliesEvents(t *testing.T) {
	m := newTestModel(nil)
	m = update(t, m, eventMsg{Kind: interp.KindPassthrough, Text: "<b>Installing packages...</b><br><br>"})
	m = update(t, m, eventMsg{Kind: interp.KindText, Text: `<b><font color="#4BC413">(1/3) installing foo</font></b><br>`, Counter: 1, Total: 3})
	m = update(t, m, eventMsg{Kind: interp.KindPercent, Percent: 40})

	assert.Equal(t, []string{"Installing packages...", "", "(1/3) installing foo"}, m.lines)
	assert.Equal(t, 40, m.percent)
	assert.Equal(t, 1, m.counter)
	assert.Equal(t, 3, m.total)
	assert.Contains(t, m.View(), "(1/3)")
}

func TestModel_CancelKey_SendsInterrupt_When_Cancelable(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	m := newTestModel(interrupts)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, m.cancelling)
	assert.Equal(t, os.Interrupt, <-interrupts)
	assert.Contains(t, m.View(), "cancelling...")

	// a second press does not queue another interrupt
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Empty(t, interrupts)
}

func TestModel_CancelKey_Refused_When_NotCancelable(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	m := newTestModel(interrupts)
	m = update(t, m, eventMsg{Kind: interp.KindCanCancel, CanCancel: false})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})

	assert.False(t, m.cancelling)
	assert.True(t, m.refused)
	assert.Empty(t, interrupts)
	assert.Contains(t, m.View(), "can no longer be cancelled")

	m = update(t, m, eventMsg{Kind: interp.KindCanCancel, CanCancel: true})
	assert.False(t, m.refused)
}

func TestModel_QuitOnlyAfterDone(t *testing.T) {
	m := newTestModel(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd)

	m = update(t, m, eventMsg{Kind: interp.KindFinished, ExitCode: 0, Status: interp.NormalExit})
	m = update(t, m, doneMsg{code: 0})
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "normal exit, code 0")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
