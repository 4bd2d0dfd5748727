//go:build unix

package runner

import (
	"bytes"
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pacfo/pkg/interp"
)

type captureObserver struct {
	mu      sync.Mutex
	started bool
	out     [2]bytes.Buffer
}

func (c *captureObserver) Started() {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

func (c *captureObserver) Feed(ch interp.Channel, chunk []byte) {
	c.mu.Lock()
	c.out[ch].Write(chunk)
	c.mu.Unlock()
}

func (c *captureObserver) text(ch interp.Channel) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out[ch].String()
}

func shell(script string) *Runner {
	return &Runner{Command: "/bin/sh", Args: []string{"-c", script}, SignalTimeout: time.Second}
}

func TestRun_StreamsBothChannels(t *testing.T) {
	obs := &captureObserver{}

	res := shell("echo out; echo err 1>&2; exit 3").Run(context.Background(), obs)

	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, interp.NormalExit, res.Status)
	assert.False(t, res.Cancelled)
	assert.True(t, obs.started)
	assert.Equal(t, "out\n", obs.text(interp.Stdout))
	assert.Equal(t, "err\n", obs.text(interp.Stderr))
}

func TestRun_ReportsNotFound_When_CommandMissing(t *testing.T) {
	obs := &captureObserver{}
	r := &Runner{Command: "/nonexistent/pacfo-missing-binary"}

	res := r.Run(context.Background(), obs)

	assert.Error(t, res.Err)
	assert.Equal(t, ExitNotFound, res.ExitCode)
	assert.False(t, obs.started)
}

func TestRun_PassesEnvironment(t *testing.T) {
	obs := &captureObserver{}
	r := shell(`printf "%s" "$PACFO_TEST_VALUE"`)
	r.Env = []string{"PACFO_TEST_VALUE=sync-db"}

	res := r.Run(context.Background(), obs)

	require.NoError(t, res.Err)
	assert.Equal(t, "sync-db", obs.text(interp.Stdout))
}

func TestRun_StopsProcessGroup_When_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r := shell("sleep 10")
	cancels := 0
	r.OnCancel = func() { cancels++ }

	start := time.Now()
	res := r.Run(ctx, &captureObserver{})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, res.Cancelled)
	assert.Equal(t, interp.CrashExit, res.Status)
	assert.Equal(t, 128+int(syscall.SIGTERM), res.ExitCode)
	assert.Equal(t, 1, cancels)
}

func TestRun_ForwardsInterrupt_When_Cancelable(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	r := shell("sleep 10")
	r.Interrupts = interrupts
	r.Cancelable = func() bool { return true }

	go func() {
		time.Sleep(50 * time.Millisecond)
		interrupts <- syscall.SIGTERM
	}()
	res := r.Run(context.Background(), &captureObserver{})

	assert.True(t, res.Cancelled)
	assert.Equal(t, interp.CrashExit, res.Status)
}

func TestRun_RefusesFirstInterrupt_When_NotCancelable(t *testing.T) {
	interrupts := make(chan os.Signal, 1)
	refused := make(chan struct{}, 1)
	r := shell("sleep 10")
	r.Interrupts = interrupts
	r.Cancelable = func() bool { return false }
	r.OnRefused = func() { refused <- struct{}{} }

	go func() {
		time.Sleep(50 * time.Millisecond)
		interrupts <- syscall.SIGTERM
		<-refused
		interrupts <- syscall.SIGTERM
	}()
	res := r.Run(context.Background(), &captureObserver{})

	assert.True(t, res.Cancelled)
	assert.Equal(t, 128+int(syscall.SIGTERM), res.ExitCode)
}

func TestRun_FeedsInterpreter(t *testing.T) {
	var texts []string
	it := interp.New(interp.Config{Context: interp.ContextInstall, NumberedProgress: true}, func(ev interp.Event) {
		if ev.Kind == interp.KindText || ev.Kind == interp.KindPassthrough {
			texts = append(texts, ev.Text)
		}
	})

	res := shell(`printf "(1/1) installing foo-1.0-x86_64\n"; printf "error: could not open file\n" 1>&2`).Run(context.Background(), it)
	it.Finished(res.ExitCode, res.Status, nil)

	require.Len(t, texts, 3)
	assert.Equal(t, "<b>Installing packages...</b><br><br>", texts[0])
	assert.Contains(t, texts, `<b><font color="#4BC413">(1/1) installing foo-1.0-x86_64</font></b><br>`)
	assert.Contains(t, texts, `<b><font color="#E55451">error: could not open file&nbsp;</font></b><br>`)
}

func TestTee(t *testing.T) {
	a, b := &captureObserver{}, &captureObserver{}

	res := shell("echo both").Run(context.Background(), Tee(a, b))

	require.NoError(t, res.Err)
	assert.Equal(t, "both\n", a.text(interp.Stdout))
	assert.Equal(t, "both\n", b.text(interp.Stdout))
	assert.True(t, a.started && b.started)
}

func TestRunTerminal_CopiesOutput(t *testing.T) {
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skip("no pseudo terminal support")
	}
	obs := &captureObserver{}
	var out bytes.Buffer

	res := shell("printf hello; exit 2").RunTerminal(context.Background(), nil, &out, obs)

	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, obs.text(interp.Stdout), "hello")
}

func TestRunTerminal_ForwardsInterrupt_When_StdinIsNotTerminal(t *testing.T) {
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skip("no pseudo terminal support")
	}
	interrupts := make(chan os.Signal, 1)
	cancels := 0
	r := shell("exec sleep 10")
	r.Interrupts = interrupts
	r.OnCancel = func() { cancels++ }

	go func() {
		time.Sleep(100 * time.Millisecond)
		interrupts <- syscall.SIGINT
	}()
	start := time.Now()
	var out bytes.Buffer
	res := r.RunTerminal(context.Background(), nil, &out, &captureObserver{})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, res.Cancelled)
	assert.Equal(t, interp.CrashExit, res.Status)
	assert.Equal(t, 128+int(syscall.SIGINT), res.ExitCode)
	assert.Equal(t, 1, cancels)
}
