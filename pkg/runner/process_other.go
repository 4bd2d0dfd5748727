//go:build !unix

package runner

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op on non-Unix platforms.
func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd, sig os.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(sig)
}

func killProcessGroupWithSIGKILL(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// getExitCodeFromError uses ProcessState.ExitCode, available on every platform.
func getExitCodeFromError(exitErr *exec.ExitError) (int, bool) {
	if exitErr.ProcessState != nil {
		return exitErr.ProcessState.ExitCode(), true
	}
	return 0, false
}

func signalled(*exec.ExitError) (int, bool) { return 0, false }

func terminateSignal() os.Signal { return os.Kill }

// InterruptSignals returns the signals a caller should route to Runner.Interrupts.
func InterruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

func watchResize(_, _ *os.File) (stop func()) { return func() {} }
