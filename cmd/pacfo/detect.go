package main

import (
	"fmt"
	"io"

	"github.com/dkoosis/pacfo/internal/detect"
	"github.com/dkoosis/pacfo/internal/logger"
	"github.com/dkoosis/pacfo/internal/transcript"
)

// runDetect prints the progress style pacfo would use and where it came from.
// With a file it also describes the transcript.
func runDetect(args []string, stdout, stderr io.Writer) int {
	fs, cli := newFlagSet("detect", stderr)
	file := fs.String("file", "", "transcript to inspect")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	cfg, ok := resolve(fs, cli, stderr)
	if !ok {
		return exitUsage
	}
	defer logger.Close()

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = "(none)"
	}
	fmt.Fprintf(stdout, "config:         %s\n", configPath)
	fmt.Fprintf(stdout, "progress style: %s (source: %s)\n", cfg.Style, cfg.StyleSource)
	fmt.Fprintf(stdout, "numbered:       %t (source: %s)\n", cfg.ShowPackageNumbers, cfg.ShowNumbersSource)
	fmt.Fprintf(stdout, "arch suffixes:  %v\n", cfg.ArchSuffixes)

	if *file == "" {
		return exitOK
	}
	t, err := transcript.Open(*file)
	if err != nil {
		fmt.Fprintf(stderr, "pacfo detect: %v\n", err)
		return exitUsage
	}
	format := t.Format.String()
	if t.Compressed {
		format += " (xz)"
	}
	fmt.Fprintf(stdout, "format:         %s\n", format)
	fmt.Fprintf(stdout, "context:        %s\n", detect.Context(t.Text()))
	fmt.Fprintf(stdout, "chunks:         %d\n", len(t.Chunks))
	fmt.Fprintf(stdout, "digest:         %s\n", t.Digest)
	return exitOK
}
