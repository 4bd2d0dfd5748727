package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// footer owns the redrawn lines under the scrolling history. Everything the
// terminal renderer prints goes through it.
type footer struct {
	out    io.Writer
	width  int
	height int
	lines  int
}

func newFooter(out io.Writer, width, height int) *footer {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	return &footer{out: out, width: width, height: height}
}

// PrintLine writes a line to the scrolling history region.
func (f *footer) PrintLine(s string) {
	fmt.Fprintln(f.out, s)
}

// Erase removes the current footer. No-op if nothing is drawn.
func (f *footer) Erase() {
	if f.lines == 0 {
		return
	}
	for i := 0; i < f.lines; i++ {
		fmt.Fprint(f.out, "\r\033[2K")
		if i < f.lines-1 {
			fmt.Fprint(f.out, "\033[1A")
		}
	}
	fmt.Fprint(f.out, "\r")
	f.lines = 0
}

// Draw prints footer lines truncated to the terminal width, at most a third
// of the height (minimum 1). The cursor is left at the end of the last line.
func (f *footer) Draw(lines []string) {
	limit := f.height / 3
	if limit < 1 {
		limit = 1
	}
	if len(lines) > limit {
		lines = lines[:limit]
	}
	for i, line := range lines {
		fmt.Fprint(f.out, truncateToWidth(line, f.width))
		if i < len(lines)-1 {
			fmt.Fprint(f.out, "\n")
		}
	}
	f.lines = len(lines)
}

// truncateToWidth cuts s to width terminal cells, marking the cut with "...".
// Styled lines that already fit are left alone.
func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
