package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"

	"github.com/dkoosis/pacfo/internal/config"
	"github.com/dkoosis/pacfo/internal/journal"
	"github.com/dkoosis/pacfo/internal/logger"
	"github.com/dkoosis/pacfo/internal/transcript"
	"github.com/dkoosis/pacfo/pkg/dashboard"
	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/pacman"
	"github.com/dkoosis/pacfo/pkg/render"
	"github.com/dkoosis/pacfo/pkg/runner"
)

// transaction is one `pacfo run` invocation.
type transaction struct {
	cfg        *config.ResolvedConfig
	ctx        interp.Context
	argv       []string
	runID      string
	record     string
	compress   bool
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	interrupts chan os.Signal
	installed  interp.InstalledChecker
}

// outcome is what execute hands back for the journal and the exit code.
type outcome struct {
	started  time.Time
	result   runner.Result
	finished interp.Event
	digest   string
	tally    journal.Tally
}

func runCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs, cli := newFlagSet("run", stderr)
	contextName := fs.String("context", "auto", "command context, or auto to infer from the pacman flags")
	commandLine := fs.String("command", "", "command line to run, split with shell quoting rules")
	tui := fs.Bool("tui", false, "full-screen view (same as --format tui)")
	record := fs.String("record", "", "write a replayable recording of the raw output to this file")
	compress := fs.Bool("compress", false, "xz-compress the recording")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	argv := fs.Args()
	if *commandLine != "" {
		split, err := shlex.Split(*commandLine)
		if err != nil {
			fmt.Fprintf(stderr, "pacfo run: --command: %v\n", err)
			return exitUsage
		}
		argv = append(split, argv...)
	}
	if len(argv) == 0 {
		fmt.Fprintln(stderr, "pacfo run: no command given (use --command or -- cmd args...)")
		return exitUsage
	}

	ctx, auto, err := parseContext(*contextName)
	if err != nil {
		fmt.Fprintf(stderr, "pacfo run: %v\n", err)
		return exitUsage
	}
	if auto {
		ctx = pacman.ContextForArgs(argv)
	}
	if *tui {
		cli.Format = "tui"
	}
	cfg, ok := resolve(fs, cli, stderr)
	if !ok {
		return exitUsage
	}
	defer logger.Close()

	tx := &transaction{
		cfg:        cfg,
		ctx:        ctx,
		argv:       argv,
		runID:      uuid.NewString(),
		record:     *record,
		compress:   *compress,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		interrupts: make(chan os.Signal, 2),
		installed:  pacman.NewQuery(),
	}
	signal.Notify(tx.interrupts, runner.InterruptSignals()...)
	defer signal.Stop(tx.interrupts)

	return tx.run(context.Background())
}

func (tx *transaction) run(ctx context.Context) int {
	log := logger.For("run")
	log.Debug().Str("run_id", tx.runID).Strs("argv", tx.argv).Stringer("context", tx.ctx).Msg("starting transaction")

	lock := pacman.NewLockFile(tx.cfg.LockFile)
	if lock.Present() {
		log.Warn().Str("lock", lock.Path).Msg("database lock present before start; pacman may refuse to run")
	}

	var (
		out *outcome
		err error
	)
	format := resolveFormat(tx.cfg.Format, tx.stdout)
	if format == "tui" && !tx.ctx.Terminal() {
		out, err = tx.runDashboard(ctx)
	} else {
		if format == "tui" {
			format = "terminal"
		}
		out, err = tx.runRendered(ctx, format)
	}
	if err != nil {
		fmt.Fprintf(tx.stderr, "pacfo run: %v\n", err)
		if out == nil {
			return exitUsage
		}
	}

	tx.journal(ctx, out)

	if out.result.Err != nil {
		fmt.Fprintf(tx.stderr, "pacfo run: %s: %v\n", tx.argv[0], out.result.Err)
	}
	if out.finished.ExitCode != 0 || out.finished.Status == interp.CrashExit {
		return exitFailed
	}
	return exitOK
}

// runRendered streams events to a terminal, plain, json or html renderer.
func (tx *transaction) runRendered(ctx context.Context, format string) (*outcome, error) {
	r, err := newRenderer(format, tx.cfg, tx.stdout, tx.runID, "pacfo: "+strings.Join(tx.argv, " "))
	if err != nil {
		return nil, err
	}
	sink, renderErr := render.Sink(r)
	out, err := tx.execute(ctx, sink)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = renderErr()
	}
	return out, err
}

// runDashboard runs the transaction under the full-screen view.
func (tx *transaction) runDashboard(ctx context.Context) (*outcome, error) {
	logger.SetInteractiveMode(true)
	defer logger.SetInteractiveMode(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		out *outcome
		err error
	}
	results := make(chan result, 1)
	_, err := dashboard.Run(ctx, dashboard.Options{
		Theme:      theme(tx.cfg, tx.stdout),
		Title:      "pacfo: " + strings.Join(tx.argv, " "),
		Interrupts: tx.interrupts,
		Input:      tx.stdin,
		Output:     tx.stdout,
	}, func(sink interp.Sink) (int, error) {
		out, err := tx.execute(ctx, sink)
		results <- result{out: out, err: err}
		if out == nil {
			return exitUsage, err
		}
		return out.finished.ExitCode, err
	})

	// An early exit of the view stops the command; wait for it either way.
	cancel()
	res := <-results
	if err == nil {
		err = res.err
	}
	if res.out == nil && err == nil {
		err = fmt.Errorf("dashboard closed before the command finished")
	}
	return res.out, err
}

// execute runs the command and feeds its output to the interpreter, the
// recorder and sink. Text and progress reach sink in arrival order.
func (tx *transaction) execute(ctx context.Context, sink interp.Sink) (*outcome, error) {
	out := &outcome{started: time.Now()}
	log := logger.For("run")

	rec, err := tx.recorder()
	if err != nil {
		return nil, err
	}

	it := interp.New(interpConfig(tx.cfg, tx.ctx, tx.installed), func(ev interp.Event) {
		out.tally.Observe(ev)
		sink(ev)
	})

	r := &runner.Runner{
		Command:    tx.argv[0],
		Args:       tx.argv[1:],
		Interrupts: tx.interrupts,
		Cancelable: it.Controller().CanCancel,
		OnCancel:   it.Cancel,
		OnRefused: func() {
			fmt.Fprintln(tx.stderr, "pacfo: the transaction is committing and cannot be cancelled safely; interrupt again to force")
		},
		Log: log,
	}

	obs := runner.Tee(it, rec)
	if tx.ctx.Terminal() {
		in, _ := tx.stdin.(*os.File)
		out.result = r.RunTerminal(ctx, in, tx.stdout, obs)
	} else {
		out.result = r.Run(ctx, obs)
	}

	out.finished = it.Finished(out.result.ExitCode, out.result.Status, pacman.NewLockFile(tx.cfg.LockFile))
	out.digest = rec.Digest()
	if err := rec.Close(); err != nil {
		return out, fmt.Errorf("recording: %w", err)
	}
	return out, nil
}

// recorder writes the raw output to the --record file. Without one the
// output is only hashed for the journal.
func (tx *transaction) recorder() (*transcript.Recorder, error) {
	if tx.record == "" {
		return transcript.NewRecorder(io.Discard, false)
	}
	return transcript.Create(tx.record, tx.compress)
}

func (tx *transaction) journal(ctx context.Context, out *outcome) {
	log := logger.For("journal")
	j, err := journal.NewJournal(tx.cfg.Journal)
	if err != nil {
		log.Warn().Err(err).Str("path", tx.cfg.Journal).Msg("journal unavailable")
		return
	}
	defer j.Close()

	entry := journal.Entry{
		RunID:     tx.runID,
		Started:   out.started,
		Context:   tx.ctx.String(),
		Command:   strings.Join(tx.argv, " "),
		ExitCode:  out.finished.ExitCode,
		Status:    out.finished.Status.String(),
		Cancelled: out.result.Cancelled,
		Duration:  out.result.Duration,
		Digest:    out.digest,
		Recording: tx.record,
	}
	out.tally.Fill(&entry)
	if err := j.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("journal write failed")
	}
}
