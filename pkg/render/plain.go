package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// Plain writes text lines without styling. Progress is dropped.
type Plain struct {
	w *bufio.Writer
}

// NewPlain creates a plain renderer.
func NewPlain(w io.Writer) *Plain {
	return &Plain{w: bufio.NewWriter(w)}
}

// Render implements Renderer.
func (p *Plain) Render(ev interp.Event) error {
	switch ev.Kind {
	case interp.KindText, interp.KindPassthrough:
		for _, line := range StripMarkup(ev.Text) {
			if _, err := fmt.Fprintln(p.w, line); err != nil {
				return err
			}
		}
		return p.w.Flush()
	case interp.KindFinished:
		if _, err := fmt.Fprintf(p.w, "exit %d (%s)\n", ev.ExitCode, ev.Status); err != nil {
			return err
		}
		return p.w.Flush()
	}
	return nil
}

// Close implements Renderer.
func (p *Plain) Close() error {
	return p.w.Flush()
}
