package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dkoosis/pacfo/internal/detect"
	"github.com/dkoosis/pacfo/internal/journal"
	"github.com/dkoosis/pacfo/internal/logger"
	"github.com/dkoosis/pacfo/internal/transcript"
	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/render"
)

// runInterpret replays a captured transcript through the interpreter.
// It exits 1 when the transcript shows errors.
func runInterpret(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, cli := newFlagSet("interpret", stderr)
	contextName := fs.String("context", "auto", "command context, or auto to guess from the transcript")
	file := fs.String("file", "", "transcript to read (default stdin)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	ctx, auto, err := parseContext(*contextName)
	if err != nil {
		fmt.Fprintf(stderr, "pacfo interpret: %v\n", err)
		return exitUsage
	}
	cfg, ok := resolve(fs, cli, stderr)
	if !ok {
		return exitUsage
	}
	defer logger.Close()

	var t *transcript.Transcript
	if *file != "" {
		t, err = transcript.Open(*file)
	} else {
		t, err = transcript.Load(stdin)
	}
	if err != nil {
		fmt.Fprintf(stderr, "pacfo interpret: %v\n", err)
		return exitUsage
	}
	if auto {
		ctx = detect.Context(t.Text())
	}
	logger.Debug().
		Stringer("format", t.Format).
		Bool("compressed", t.Compressed).
		Int("chunks", len(t.Chunks)).
		Stringer("context", ctx).
		Msg("transcript loaded")

	format := resolveFormat(cfg.Format, stdout)
	if format == "tui" {
		format = "terminal"
	}
	r, err := newRenderer(format, cfg, stdout, uuid.NewString(), "pacfo: "+ctx.String())
	if err != nil {
		fmt.Fprintf(stderr, "pacfo interpret: %v\n", err)
		return exitUsage
	}
	renderSink, renderErr := render.Sink(r)

	var tally journal.Tally
	sink := func(ev interp.Event) {
		tally.Observe(ev)
		// a transcript carries no exit status
		if ev.Kind != interp.KindFinished {
			renderSink(ev)
		}
	}

	it := interp.New(interpConfig(cfg, ctx, nil), sink)
	it.Started()
	for _, c := range t.Chunks {
		it.Feed(c.Channel, c.Data)
	}
	it.Finished(0, interp.NormalExit, nil)

	if err := r.Close(); err != nil {
		fmt.Fprintf(stderr, "pacfo interpret: %v\n", err)
		return exitUsage
	}
	if err := renderErr(); err != nil {
		fmt.Fprintf(stderr, "pacfo interpret: writing output: %v\n", err)
		return exitUsage
	}
	if tally.Errors > 0 {
		return exitFailed
	}
	return exitOK
}
