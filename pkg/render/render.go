// Package render turns interpreter events into terminal, plain, JSON or HTML
// output.
package render

import (
	"fmt"
	"io"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// Renderer consumes events in emission order.
type Renderer interface {
	Render(ev interp.Event) error
	// Close flushes anything pending. It does not close the underlying writer.
	Close() error
}

// Options configure New.
type Options struct {
	Theme  Theme
	Live   bool // redrawing progress footer, terminal format only
	Width  int
	Height int // bounds the footer; zero means 24
	// RunID is stamped on JSON records and the HTML document.
	RunID string
	Title string
}

// New returns the renderer for format: terminal, plain, json or html.
func New(format string, w io.Writer, opts Options) (Renderer, error) {
	switch format {
	case "terminal":
		return NewTerminal(w, opts), nil
	case "plain":
		return NewPlain(w), nil
	case "json":
		return NewJSON(w, opts.RunID), nil
	case "html":
		return NewHTML(w, opts.Title, opts.RunID), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// Sink adapts r to an interpreter sink. The first write error is kept and
// later events are dropped; read it with the returned func.
func Sink(r Renderer) (interp.Sink, func() error) {
	var failed error
	sink := func(ev interp.Event) {
		if failed != nil {
			return
		}
		failed = r.Render(ev)
	}
	return sink, func() error { return failed }
}
