package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dkoosis/pacfo/internal/journal"
	"github.com/dkoosis/pacfo/internal/logger"
)

// runHistory lists journaled runs, newest first.
func runHistory(args []string, stdout, stderr io.Writer) int {
	fs, cli := newFlagSet("history", stderr)
	limit := fs.Int("limit", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	cfg, ok := resolve(fs, cli, stderr)
	if !ok {
		return exitUsage
	}
	defer logger.Close()

	if cfg.Journal == "" {
		fmt.Fprintln(stderr, "pacfo history: the journal is off")
		return exitUsage
	}
	j, err := journal.NewJournal(cfg.Journal)
	if err != nil {
		fmt.Fprintf(stderr, "pacfo history: %v\n", err)
		return exitUsage
	}
	defer j.Close()

	entries, err := j.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(stderr, "pacfo history: %v\n", err)
		return exitUsage
	}

	if cfg.Format == "json" {
		enc := json.NewEncoder(stdout)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				fmt.Fprintf(stderr, "pacfo history: %v\n", err)
				return exitUsage
			}
		}
		return exitOK
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tCONTEXT\tEXIT\tERRORS\tPACKAGES\tDURATION\tCOMMAND")
	for _, e := range entries {
		exit := fmt.Sprint(e.ExitCode)
		if e.Cancelled {
			exit += " (cancelled)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.Started.Local().Format(time.DateTime), e.Context, exit, e.Errors, e.Packages,
			e.Duration.Round(100*time.Millisecond), e.Command)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "pacfo history: %v\n", err)
		return exitUsage
	}
	return exitOK
}
