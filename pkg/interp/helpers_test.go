package interp

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

type installedSet map[string]bool

func (s installedSet) IsInstalled(name string) bool { return s[name] }

type fakeLock bool

func (l fakeLock) Present() bool { return bool(l) }

type recorder struct {
	events []Event
}

func (r *recorder) sink(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) only(k Kind) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

func newTestInterpreter(t *testing.T, cfg Config) (*Interpreter, *recorder) {
	t.Helper()
	rec := &recorder{}
	return New(cfg, rec.sink), rec
}

func newBufferLogger() (*zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	return &log, &buf
}
