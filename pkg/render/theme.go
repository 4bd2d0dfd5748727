package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme maps the interpreter's markup colours onto terminal styles.
type Theme struct {
	Name    string
	Error   lipgloss.Style
	Warning lipgloss.Style
	Action  lipgloss.Style
	Target  lipgloss.Style
	Bare    lipgloss.Style
	Plain   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	// BarFrom and BarTo are the progress bar gradient; equal values give a solid bar.
	BarFrom string
	BarTo   string
	Mono    bool
}

// ThemeNames lists the names ThemeByName understands.
var ThemeNames = []string{"default", "mono", "high-contrast"}

// DefaultTheme uses pacman's own palette.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	r = orDefault(r)
	return Theme{
		Name:    "default",
		Error:   r.NewStyle().Foreground(lipgloss.Color("#E55451")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#FF8040")),
		Action:  r.NewStyle().Foreground(lipgloss.Color("#4BC413")),
		Target:  r.NewStyle().Foreground(lipgloss.Color("#b4ab58")),
		Bare:    r.NewStyle().Foreground(lipgloss.Color("39")),
		Plain:   r.NewStyle(),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("242")),
		BarFrom: "#4BC413",
		BarTo:   "#b4ab58",
	}
}

// MonoTheme keeps weight but drops colour.
func MonoTheme(r *lipgloss.Renderer) Theme {
	r = orDefault(r)
	return Theme{
		Name:    "mono",
		Error:   r.NewStyle(),
		Warning: r.NewStyle(),
		Action:  r.NewStyle(),
		Target:  r.NewStyle(),
		Bare:    r.NewStyle(),
		Plain:   r.NewStyle(),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle(),
		Mono:    true,
	}
}

// HighContrastTheme uses the bright ANSI colours.
func HighContrastTheme(r *lipgloss.Renderer) Theme {
	r = orDefault(r)
	return Theme{
		Name:    "high-contrast",
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Action:  r.NewStyle().Foreground(lipgloss.Color("10")),
		Target:  r.NewStyle().Foreground(lipgloss.Color("14")),
		Bare:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Plain:   r.NewStyle().Foreground(lipgloss.Color("15")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("7")),
		BarFrom: "10",
		BarTo:   "10",
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string, r *lipgloss.Renderer) Theme {
	switch name {
	case "mono":
		return MonoTheme(r)
	case "high-contrast":
		return HighContrastTheme(r)
	default:
		return DefaultTheme(r)
	}
}

func orDefault(r *lipgloss.Renderer) *lipgloss.Renderer {
	if r == nil {
		return lipgloss.DefaultRenderer()
	}
	return r
}

// styleFor picks the style for a span.
func (t Theme) styleFor(s Span) lipgloss.Style {
	var st lipgloss.Style
	switch strings.ToLower(s.Color) {
	case "#e55451":
		st = t.Error
	case "#ff8040":
		st = t.Warning
	case "#4bc413":
		st = t.Action
	case "#b4ab58":
		st = t.Target
	case "blue":
		st = t.Bare
	default:
		st = t.Plain
	}
	if s.Bold {
		st = st.Bold(true)
	}
	return st
}

// RenderLine styles every span of l and joins them.
func (t Theme) RenderLine(l Line) string {
	var sb strings.Builder
	for _, s := range l {
		sb.WriteString(t.styleFor(s).Render(s.Text))
	}
	return sb.String()
}
