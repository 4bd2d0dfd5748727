package render

import (
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// HTML writes a standalone document. Interpreter markup is passed through
// as-is since it is already HTML.
type HTML struct {
	w       io.Writer
	title   string
	runID   string
	started bool
	err     error
}

// NewHTML creates an HTML renderer.
func NewHTML(w io.Writer, title, runID string) *HTML {
	if title == "" {
		title = "pacman transaction"
	}
	return &HTML{w: w, title: title, runID: runID}
}

func (h *HTML) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func (h *HTML) start() {
	if h.started {
		return
	}
	h.started = true
	h.printf("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n", html.EscapeString(h.title))
	h.printf("<body data-run-id=\"%s\" style=\"font-family: monospace\">\n", html.EscapeString(h.runID))
}

// Render implements Renderer.
func (h *HTML) Render(ev interp.Event) error {
	h.start()
	switch ev.Kind {
	case interp.KindText, interp.KindPassthrough:
		h.printf("%s\n", ev.Text)
	case interp.KindFinished:
		h.printf("<p class=\"finished\" data-exit-code=\"%d\">%s exit, code %d</p>\n",
			ev.ExitCode, html.EscapeString(ev.Status.String()), ev.ExitCode)
	}
	return h.err
}

// Close ends the document.
func (h *HTML) Close() error {
	h.start()
	h.printf("</body></html>\n")
	return h.err
}
