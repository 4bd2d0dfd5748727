package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// JSON writes one record per event (NDJSON) for automation.
type JSON struct {
	enc   *json.Encoder
	runID string
	seq   int
}

// Record is one NDJSON line.
type Record struct {
	RunID     string `json:"run_id,omitempty"`
	Seq       int    `json:"seq"`
	Kind      string `json:"kind"`
	Category  string `json:"category,omitempty"`
	Markup    string `json:"markup,omitempty"`
	Text      string `json:"text,omitempty"`
	Percent   *int   `json:"percent,omitempty"`
	CanCancel *bool  `json:"can_cancel,omitempty"`
	Counter   int    `json:"counter,omitempty"`
	Total     int    `json:"total,omitempty"`
	Package   string `json:"package,omitempty"`
	Target    string `json:"target,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	Status    string `json:"status,omitempty"`
}

// NewJSON creates a JSON renderer.
func NewJSON(w io.Writer, runID string) *JSON {
	return &JSON{enc: json.NewEncoder(w), runID: runID}
}

// Render implements Renderer.
func (j *JSON) Render(ev interp.Event) error {
	j.seq++
	rec := Record{
		RunID:    j.runID,
		Seq:      j.seq,
		Kind:     ev.Kind.String(),
		Category: ev.Category.String(),
		Counter:  ev.Counter,
		Total:    ev.Total,
		Package:  ev.Package,
		Target:   ev.Target,
	}
	switch ev.Kind {
	case interp.KindText, interp.KindPassthrough:
		rec.Markup = ev.Text
		rec.Text = strings.TrimSpace(strings.Join(StripMarkup(ev.Text), "\n"))
	case interp.KindPercent:
		rec.Percent = &ev.Percent
	case interp.KindCanCancel:
		rec.CanCancel = &ev.CanCancel
	case interp.KindFinished:
		rec.ExitCode = &ev.ExitCode
		rec.Status = ev.Status.String()
	}
	return j.enc.Encode(rec)
}

// Close implements Renderer.
func (j *JSON) Close() error { return nil }
