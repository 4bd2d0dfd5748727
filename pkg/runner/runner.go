// Package runner starts a pacman transaction as a subprocess and streams its
// output, chunk by chunk, to an Observer. Interrupts are forwarded to the
// whole process group only while the observer says cancelling is safe.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkoosis/pacfo/pkg/interp"
)

const (
	// ReadBufferSize is the buffer size for reading from pipes (4KB).
	ReadBufferSize = 4096
	// DefaultSignalTimeout is how long a signalled process group gets before SIGKILL.
	DefaultSignalTimeout = 5 * time.Second
	// ExitNotFound is reported when the command could not be found.
	ExitNotFound = 127
)

// Observer receives the subprocess lifecycle. Feed is always called from a
// single goroutine, in arrival order per channel.
type Observer interface {
	Started()
	Feed(ch interp.Channel, chunk []byte)
}

// Tee fans one run out to several observers.
func Tee(obs ...Observer) Observer {
	return tee(obs)
}

type tee []Observer

func (t tee) Started() {
	for _, o := range t {
		o.Started()
	}
}

func (t tee) Feed(ch interp.Channel, chunk []byte) {
	for _, o := range t {
		o.Feed(ch, chunk)
	}
}

// Result describes how the subprocess ended.
type Result struct {
	ExitCode  int
	Status    interp.ExitStatus
	Cancelled bool
	Duration  time.Duration
	// Err is set when the process could not be started or its pipes failed.
	Err error
}

// Runner holds the command line and the cancellation policy of one run.
type Runner struct {
	Command string
	Args    []string
	Env     []string
	Dir     string

	// SignalTimeout overrides DefaultSignalTimeout.
	SignalTimeout time.Duration
	// Interrupts delivers user cancel requests, typically from signal.Notify.
	Interrupts <-chan os.Signal
	// Cancelable reports whether the current phase may be interrupted. Nil
	// means always.
	Cancelable func() bool
	// OnCancel runs on the loop goroutine when an interrupt is forwarded.
	// RunTerminal calls it after the child exits instead.
	OnCancel func()
	// OnRefused runs when an interrupt arrives during a protected phase.
	// A second interrupt after a refusal is forwarded anyway.
	OnRefused func()

	Log *zerolog.Logger
}

type chunk struct {
	ch   interp.Channel
	data []byte
}

func (r *Runner) logger() *zerolog.Logger {
	if r.Log != nil {
		return r.Log
	}
	nop := zerolog.Nop()
	return &nop
}

func (r *Runner) signalTimeout() time.Duration {
	if r.SignalTimeout > 0 {
		return r.SignalTimeout
	}
	return DefaultSignalTimeout
}

func (r *Runner) command() *exec.Cmd {
	cmd := exec.Command(r.Command, r.Args...)
	cmd.Env = os.Environ()
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Env, r.Env...)
	}
	cmd.Dir = r.Dir
	return cmd
}

// Run executes the command and blocks until it exits. Cancelling ctx signals
// the process group as an interrupt would, without consulting Cancelable.
func (r *Runner) Run(ctx context.Context, obs Observer) Result {
	log := r.logger()
	start := time.Now()

	cmd := r.command()
	setProcessGroup(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: 1, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: 1, Err: err}
	}
	if err := cmd.Start(); err != nil {
		log.Debug().Err(err).Str("command", r.Command).Msg("start failed")
		return Result{ExitCode: getExitCode(err, log), Err: err}
	}
	log.Debug().Int("pid", cmd.Process.Pid).Str("command", r.Command).Strs("args", r.Args).Msg("process started")
	obs.Started()

	chunks := make(chan chunk, 64)
	var wg sync.WaitGroup
	var pumpErr error
	var pumpMu sync.Mutex
	pump := func(ch interp.Channel, src io.Reader) {
		defer wg.Done()
		buf := make([]byte, ReadBufferSize)
		for {
			n, readErr := src.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				chunks <- chunk{ch: ch, data: data}
			}
			if readErr != nil {
				if !isBenignReadError(readErr) {
					pumpMu.Lock()
					pumpErr = readErr
					pumpMu.Unlock()
				}
				return
			}
		}
	}
	wg.Add(2)
	go pump(interp.Stdout, stdout)
	go pump(interp.Stderr, stderr)
	go func() {
		wg.Wait()
		close(chunks)
	}()

	var (
		cancelled bool
		forceNext bool
		killTimer *time.Timer
		done      = ctx.Done()
	)
	terminate := func(sig os.Signal) {
		cancelled = true
		if err := killProcessGroup(cmd, sig); err != nil {
			log.Debug().Err(err).Msg("signal process group")
		}
		if killTimer == nil {
			killTimer = time.AfterFunc(r.signalTimeout(), func() {
				log.Debug().Msg("signal timeout, killing process group")
				_ = killProcessGroupWithSIGKILL(cmd)
			})
		}
	}

loop:
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				break loop
			}
			obs.Feed(c.ch, c.data)
		case sig := <-r.Interrupts:
			if r.Cancelable != nil && !r.Cancelable() && !forceNext {
				log.Info().Msg("cancel refused while the transaction is committing")
				forceNext = true
				if r.OnRefused != nil {
					r.OnRefused()
				}
				continue
			}
			log.Debug().Str("signal", sig.String()).Msg("forwarding interrupt")
			if !cancelled && r.OnCancel != nil {
				r.OnCancel()
			}
			terminate(sig)
		case <-done:
			done = nil
			log.Debug().Err(ctx.Err()).Msg("context done, stopping process")
			if !cancelled && r.OnCancel != nil {
				r.OnCancel()
			}
			terminate(terminateSignal())
		}
	}

	waitErr := cmd.Wait()
	if killTimer != nil {
		killTimer.Stop()
	}

	res := Result{Cancelled: cancelled, Duration: time.Since(start)}
	res.ExitCode, res.Status = exitStatus(cmd, waitErr, log)
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		res.Err = waitErr
	}
	if res.Err == nil {
		pumpMu.Lock()
		res.Err = pumpErr
		pumpMu.Unlock()
	}
	log.Debug().Int("exit_code", res.ExitCode).Stringer("status", res.Status).Bool("cancelled", cancelled).Dur("took", res.Duration).Msg("process finished")
	return res
}

func exitStatus(cmd *exec.Cmd, err error, log *zerolog.Logger) (int, interp.ExitStatus) {
	if err == nil {
		return 0, interp.NormalExit
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if sig, ok := signalled(exitErr); ok {
			return 128 + sig, interp.CrashExit
		}
	}
	if cmd.ProcessState != nil && !cmd.ProcessState.Exited() {
		return 1, interp.CrashExit
	}
	return getExitCode(err, log), interp.NormalExit
}

func getExitCode(err error, log *zerolog.Logger) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := getExitCodeFromError(exitErr); ok {
			return code
		}
		log.Debug().Str("sys", exitErr.String()).Msg("exit status not available")
		return 1
	}

	if isCommandNotFoundError(err) {
		return ExitNotFound
	}
	return 1
}

// isCommandNotFoundError checks if the error indicates the command was not found.
func isCommandNotFoundError(err error) bool {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	errStr := err.Error()
	if strings.Contains(errStr, "executable file not found") {
		return true
	}
	return runtime.GOOS != "windows" && strings.Contains(errStr, "no such file or directory")
}

func isBenignReadError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "file already closed") || strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "input/output error")
}
