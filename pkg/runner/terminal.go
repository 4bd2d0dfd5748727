package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// RunTerminal runs the command on a pseudo terminal wired to in and out so
// the user can answer pacman's prompts. Output is also fed to obs as stdout.
// Keystrokes reach the child as-is. Signals arriving on Interrupts, as when
// stdin is not a terminal, are forwarded to the child without consulting
// Cancelable; OnCancel runs once the child has exited.
func (r *Runner) RunTerminal(ctx context.Context, in *os.File, out io.Writer, obs Observer) Result {
	log := r.logger()
	start := time.Now()

	cmd := r.command()
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{ExitCode: getExitCode(err, log), Err: err}
	}
	defer ptmx.Close()
	log.Debug().Int("pid", cmd.Process.Pid).Str("command", r.Command).Msg("terminal process started")
	obs.Started()

	if in != nil && term.IsTerminal(int(in.Fd())) {
		if state, err := term.MakeRaw(int(in.Fd())); err == nil {
			defer func() { _ = term.Restore(int(in.Fd()), state) }()
		}
		if err := pty.InheritSize(in, ptmx); err != nil {
			log.Debug().Err(err).Msg("inherit terminal size")
		}
		stop := watchResize(in, ptmx)
		defer stop()
	}
	if in != nil {
		go func() { _, _ = io.Copy(ptmx, in) }()
	}

	var cancelled atomic.Bool
	stopped := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		done := ctx.Done()
		var kill <-chan time.Time
		stop := func(sig os.Signal) {
			cancelled.Store(true)
			_ = cmd.Process.Signal(sig)
			if kill == nil {
				kill = time.After(r.signalTimeout())
			}
		}
		for {
			select {
			case sig := <-r.Interrupts:
				log.Debug().Str("signal", sig.String()).Msg("forwarding interrupt to terminal process")
				stop(sig)
			case <-done:
				done = nil
				stop(terminateSignal())
			case <-kill:
				kill = nil
				_ = cmd.Process.Kill()
			case <-stopped:
				return
			}
		}
	}()

	var readErr error
	buf := make([]byte, ReadBufferSize)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if _, werr := out.Write(data); werr != nil {
				log.Debug().Err(werr).Msg("terminal write")
			}
			obs.Feed(interp.Stdout, data)
		}
		if err != nil {
			if !isBenignReadError(err) {
				readErr = err
			}
			break
		}
	}

	waitErr := cmd.Wait()
	close(stopped)
	<-watched
	res := Result{Duration: time.Since(start), Err: readErr}
	res.ExitCode, res.Status = exitStatus(cmd, waitErr, log)
	res.Cancelled = cancelled.Load()
	if res.Cancelled && r.OnCancel != nil {
		r.OnCancel()
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		res.Err = waitErr
	}
	return res
}
