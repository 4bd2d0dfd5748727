// pacfo interprets pacman transaction output as styled progress.
//
// Usage:
//
//	pacfo run -- sudo pacman -Syu
//	pacfo run --tui --command "sudo pacman -S firefox"
//	pacfo interpret --file upgrade.log
//	pacman -Syu 2>&1 | tee upgrade.log | pacfo interpret --context system-upgrade
//	pacfo detect
//	pacfo history --limit 5
//
// Output formats:
//
//	terminal  styled output with a live progress footer (default when TTY)
//	plain     unstyled lines (default when piped or under CI)
//	json      one NDJSON record per event
//	html      a standalone HTML document
//	tui       full-screen view with a cancel key (run only)
//
// Exit codes: 0 success, 1 the transaction failed, 2 usage, config or I/O error.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dkoosis/pacfo/internal/config"
	"github.com/dkoosis/pacfo/internal/logger"
	"github.com/dkoosis/pacfo/internal/version"
	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/render"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "interpret":
		return runInterpret(args[1:], stdin, stdout, stderr)
	case "run":
		return runCommand(args[1:], stdin, stdout, stderr)
	case "detect":
		return runDetect(args[1:], stdout, stderr)
	case "history":
		return runHistory(args[1:], stdout, stderr)
	case "version", "--version":
		fmt.Fprintln(stdout, version.String())
		return exitOK
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	}
	fmt.Fprintf(stderr, "pacfo: unknown command %q\n", args[0])
	usage(stderr)
	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: pacfo <command> [flags]

Commands:
  run        run a pacman command and interpret its output
  interpret  interpret a captured transcript (file or stdin)
  detect     show the detected progress style and transcript details
  history    list journaled runs
  version    print the version
`)
}

// newFlagSet registers the flags every subcommand shares.
func newFlagSet(name string, stderr io.Writer) (*pflag.FlagSet, *config.CliFlags) {
	cli := &config.CliFlags{}
	fs := pflag.NewFlagSet("pacfo "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cli.Format, "format", "", "output format: auto, terminal, plain, json, html, tui")
	fs.StringVar(&cli.ThemeName, "theme", "", "theme: default, mono, high-contrast")
	fs.StringVar(&cli.ProgressStyle, "style", "", "progress style: auto, fancy, plain")
	fs.BoolVar(&cli.ShowNumbers, "numbered", false, "prefix package lines with (i/N)")
	fs.BoolVar(&cli.NoColor, "no-color", false, "disable colour")
	fs.BoolVar(&cli.CI, "ci", false, "CI mode: no colour, no live footer")
	fs.BoolVar(&cli.Debug, "debug", false, "debug logging on stderr")
	fs.StringVar(&cli.PacmanConf, "pacman-conf", "", "path to pacman.conf")
	fs.StringVar(&cli.LockFile, "lock-file", "", "path to the pacman database lock")
	fs.StringVar(&cli.Journal, "journal", "", `journal database path, or "off"`)
	fs.StringVar(&cli.LogDir, "log-dir", "", "also write logs to a rotating file in this directory")
	return fs, cli
}

// resolve records which shared flags were set and resolves the configuration.
func resolve(fs *pflag.FlagSet, cli *config.CliFlags, stderr io.Writer) (*config.ResolvedConfig, bool) {
	cli.ShowNumbersSet = fs.Changed("numbered")
	cli.NoColorSet = fs.Changed("no-color")
	cli.CISet = fs.Changed("ci")
	cli.DebugSet = fs.Changed("debug")

	cfg, err := config.ResolveConfig(*cli)
	if err != nil {
		fmt.Fprintf(stderr, "pacfo: %v\n", err)
		return nil, false
	}
	if err := logger.Init(logger.Options{
		Debug:     cfg.Debug,
		NoColor:   cfg.NoColor,
		Console:   stderr,
		Dir:       cfg.LogDir,
		MaxSizeMB: cfg.LogMaxSizeMB,
	}); err != nil {
		fmt.Fprintf(stderr, "pacfo: %v\n", err)
		return nil, false
	}
	logger.Debug().
		Str("config", cfg.ConfigPath).
		Stringer("style", cfg.Style).
		Str("style_source", cfg.StyleSource).
		Str("format", cfg.Format).
		Str("format_source", cfg.FormatSource).
		Msg("configuration resolved")
	return cfg, true
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termSize returns the terminal dimensions for w, defaulting to 80x24.
func termSize(w io.Writer) (width, height int) {
	width, height = 80, 24
	if f, ok := w.(*os.File); ok {
		if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
			if tw > 0 {
				width = tw
			}
			if th > 0 {
				height = th
			}
		}
	}
	return width, height
}

// resolveFormat turns "auto" into terminal or plain depending on w.
func resolveFormat(format string, w io.Writer) string {
	if format != "auto" && format != "" {
		return format
	}
	if isTTYWriter(w) {
		return "terminal"
	}
	return "plain"
}

func theme(cfg *config.ResolvedConfig, w io.Writer) render.Theme {
	r := lipgloss.NewRenderer(w)
	if cfg.NoColor {
		return render.MonoTheme(r)
	}
	return render.ThemeByName(cfg.Theme, r)
}

// newRenderer builds the renderer for a non-TUI format.
func newRenderer(format string, cfg *config.ResolvedConfig, w io.Writer, runID, title string) (render.Renderer, error) {
	width, height := termSize(w)
	return render.New(format, w, render.Options{
		Theme:  theme(cfg, w),
		Live:   format == "terminal" && isTTYWriter(w) && !cfg.CI,
		Width:  width,
		Height: height,
		RunID:  runID,
		Title:  title,
	})
}

// interpConfig is the interpreter configuration for ctx.
func interpConfig(cfg *config.ResolvedConfig, ctx interp.Context, installed interp.InstalledChecker) interp.Config {
	return interp.Config{
		Context:          ctx,
		NumberedProgress: cfg.ShowPackageNumbers,
		Style:            cfg.Style,
		Targets:          interp.ArchTargetFilter(cfg.ArchSuffixes...),
		Installed:        installed,
		Logger:           logger.For("interp"),
	}
}

func parseContext(name string) (interp.Context, bool, error) {
	if name == "" || name == "auto" {
		return interp.ContextNone, true, nil
	}
	ctx, err := interp.ParseContext(name)
	return ctx, false, err
}
