package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pacfo/internal/config"
	"github.com/dkoosis/pacfo/pkg/interp"
)

func TestRunDashboard_WaitsForCommand_When_ViewExitsEarly(t *testing.T) {
	requireUnix(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	tx := &transaction{
		cfg:        &config.ResolvedConfig{LockFile: filepath.Join(t.TempDir(), "db.lck")},
		ctx:        interp.ContextInstall,
		argv:       []string{"/bin/sh", "-c", "sleep 5"},
		runID:      "dashboard-test",
		stdin:      strings.NewReader(""),
		stdout:     &stdout,
		stderr:     &stderr,
		interrupts: make(chan os.Signal, 2),
	}

	start := time.Now()
	out, _ := tx.runDashboard(ctx)

	require.NotNil(t, out)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.True(t, out.result.Cancelled)
	assert.NotZero(t, out.finished.ExitCode)
}
