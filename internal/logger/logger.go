// Package logger holds the process-wide zerolog logger. Console output goes
// to stderr in human form; when a log directory is configured every record is
// also written as JSON to a rotating file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside Options.Dir.
const FileName = "pacfo.log"

var (
	// Log is the global logger. It discards everything until Init is called.
	Log = zerolog.Nop()

	fileWriter  *lumberjack.Logger
	fileOnlyLog = zerolog.Nop()

	interactive   bool
	interactiveMu sync.RWMutex
)

// Options configures Init.
type Options struct {
	Debug   bool
	NoColor bool
	// Console receives human-readable records. Nil means os.Stderr.
	Console io.Writer
	// Dir enables file logging when non-empty.
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (o Options) level() zerolog.Level {
	if o.Debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (o Options) maxSize() int {
	if o.MaxSizeMB <= 0 {
		return 10
	}
	return o.MaxSizeMB
}

func (o Options) maxBackups() int {
	if o.MaxBackups <= 0 {
		return 3
	}
	return o.MaxBackups
}

func (o Options) maxAge() int {
	if o.MaxAgeDays <= 0 {
		return 14
	}
	return o.MaxAgeDays
}

// Init replaces the global logger. Calling it again closes a previously
// opened log file.
func Init(opts Options) error {
	if err := Close(); err != nil {
		return err
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: opts.NoColor}
	level := opts.level()

	if opts.Dir == "" {
		Log = zerolog.New(console).Level(level).With().Timestamp().Logger()
		fileOnlyLog = zerolog.Nop()
		return nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	fileWriter = &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    opts.maxSize(),
		MaxBackups: opts.maxBackups(),
		MaxAge:     opts.maxAge(),
		LocalTime:  true,
	}
	fileOnlyLog = zerolog.New(fileWriter).Level(level).With().Timestamp().Logger()
	Log = zerolog.New(io.MultiWriter(console, fileWriter)).Level(level).With().Timestamp().Logger()
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// FilePath returns the active log file, or "" when file logging is off.
func FilePath() string {
	if fileWriter != nil {
		return fileWriter.Filename
	}
	return ""
}

// SetInteractiveMode keeps records off the console while a full-screen UI
// owns the terminal. The log file still receives them.
func SetInteractiveMode(enabled bool) {
	interactiveMu.Lock()
	defer interactiveMu.Unlock()
	interactive = enabled
}

func suppressConsole() bool {
	interactiveMu.RLock()
	defer interactiveMu.RUnlock()
	return interactive
}

func current() *zerolog.Logger {
	if suppressConsole() {
		return &fileOnlyLog
	}
	return &Log
}

// For returns a child logger tagged with component. The interactive setting is
// read when For is called.
func For(component string) *zerolog.Logger {
	l := current().With().Str("component", component).Logger()
	return &l
}

func Debug() *zerolog.Event { return current().Debug() }

func Info() *zerolog.Event { return current().Info() }

func Warn() *zerolog.Event { return current().Warn() }

func Error() *zerolog.Event { return current().Error() }
