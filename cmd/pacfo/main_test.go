package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/pacfo/internal/transcript"
	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/render"
)

const installTranscript = `resolving dependencies...
looking for conflicting packages...
:: Proceed with installation? [Y/n]
(1/2) checking keys in keyring                     [######################] 100%
(1/2) installing foo-1.0-x86_64
(2/2) installing bar-2.0-any
`

// isolate points pacfo at an empty config and a throwaway pacman.conf and
// returns the flags every test passes.
func isolate(t *testing.T, pacmanConf string) []string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".pacfo.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("journal: off\n"), 0o644))
	confPath := filepath.Join(dir, "pacman.conf")
	require.NoError(t, os.WriteFile(confPath, []byte(pacmanConf), 0o644))

	t.Setenv("PACFO_CONFIG", cfgPath)
	for _, key := range []string{"CI", "NO_COLOR", "PACFO_NO_COLOR", "PACFO_CI", "PACFO_DEBUG", "PACFO_FORMAT",
		"PACFO_THEME", "PACFO_PROGRESS_STYLE", "PACFO_SHOW_NUMBERS", "PACFO_JOURNAL"} {
		t.Setenv(key, "")
	}
	return []string{"--pacman-conf", confPath, "--lock-file", filepath.Join(dir, "db.lck")}
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
}

func TestRun_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{name: "no args", args: nil, wantCode: exitUsage, wantErr: "Usage: pacfo"},
		{name: "unknown command", args: []string{"frobnicate"}, wantCode: exitUsage, wantErr: `unknown command "frobnicate"`},
		{name: "help", args: []string{"help"}, wantCode: exitOK, wantOut: "Commands:"},
		{name: "version", args: []string{"version"}, wantCode: exitOK, wantOut: "pacfo dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, strings.NewReader(""), &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantOut != "" {
				assert.Contains(t, stdout.String(), tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestInterpret_RendersPlainText_When_Piped(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer

	code := run(append([]string{"interpret", "--context", "install"}, flags...), strings.NewReader(installTranscript), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "Installing packages...\n"), out)
	assert.Contains(t, out, "installing foo-1.0-x86_64\n")
	assert.Contains(t, out, "installing bar-2.0-any\n")
	assert.NotContains(t, out, "exit 0", "a transcript has no exit status")
	assert.NotContains(t, out, "\033[")
}

func TestInterpret_NumbersPackages_When_Requested(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer

	code := run(append([]string{"interpret", "--context", "install", "--numbered"}, flags...), strings.NewReader(installTranscript), &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "(1/2) installing foo-1.0-x86_64\n")
	assert.Contains(t, stdout.String(), "(2/2) installing bar-2.0-any\n")
}

func TestInterpret_ExitsOne_When_TranscriptHasErrors(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer
	input := installTranscript + "error: failed to commit transaction\n"

	code := run(append([]string{"interpret"}, flags...), strings.NewReader(input), &stdout, &stderr)

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout.String(), "error: failed to commit transaction")
}

func TestInterpret_JSON(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer

	code := run(append([]string{"interpret", "--context", "install", "--format", "json"}, flags...), strings.NewReader(installTranscript), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var packages []string
	sc := bufio.NewScanner(&stdout)
	for sc.Scan() {
		var rec render.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		assert.NotEmpty(t, rec.RunID)
		assert.NotEqual(t, "finished", rec.Kind)
		if rec.Package != "" {
			packages = append(packages, rec.Package)
		}
	}
	assert.Contains(t, packages, "foo")
	assert.Contains(t, packages, "bar")
}

func TestInterpret_ReplaysCompressedRecording(t *testing.T) {
	flags := isolate(t, "[options]\n")
	path := filepath.Join(t.TempDir(), "run.ndjson.xz")
	rec, err := transcript.Create(path, true)
	require.NoError(t, err)
	rec.Started()
	rec.Feed(interp.Stdout, []byte("(1/1) upgrading baz-2."))
	rec.Feed(interp.Stderr, []byte("warning: something odd\n"))
	rec.Feed(interp.Stdout, []byte("0-any\n"))
	require.NoError(t, rec.Close())

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"interpret", "--context", "system-upgrade", "--file", path}, flags...), nil, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Upgrading system...")
	assert.Contains(t, out, "warning: something odd")
	assert.Contains(t, out, "upgrading baz-2.0-any")
}

func TestInterpret_RejectsUnknownContext(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"interpret", "--context", "bogus"}, flags...), strings.NewReader("x\n"), &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "unknown command context")
}

func TestDetect_ReportsStyleFromPacmanConf(t *testing.T) {
	flags := isolate(t, "[options]\nColor\nILoveCandy\n")
	var stdout, stderr bytes.Buffer

	code := run(append([]string{"detect"}, flags...), nil, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "progress style: fancy (source: pacman.conf)")
}

func TestDetect_DescribesTranscript(t *testing.T) {
	flags := isolate(t, "[options]\n")
	path := filepath.Join(t.TempDir(), "sync.log")
	require.NoError(t, os.WriteFile(path, []byte(":: Synchronizing package databases...\n core is up to date\n"), 0o644))
	var stdout, stderr bytes.Buffer

	code := run(append([]string{"detect", "--file", path}, flags...), nil, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "format:         plain")
	assert.Contains(t, stdout.String(), "context:        sync-db")
	assert.Contains(t, stdout.String(), "digest:         "+transcript.Sum([]byte(":: Synchronizing package databases...\n core is up to date\n")))
}

func TestRunCommand_InterpretsOutputAndJournals(t *testing.T) {
	requireUnix(t)
	flags := isolate(t, "[options]\n")
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.db")
	recording := filepath.Join(dir, "run.ndjson")
	script := `/bin/sh -c 'echo "(1/1) installing foo-1.0-x86_64"; echo "error: could not open file" >&2; exit 0'`

	var stdout, stderr bytes.Buffer
	args := append([]string{"run", "--context", "install", "--format", "plain", "--journal", journalPath,
		"--record", recording, "--command", script}, flags...)
	code := run(args, nil, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Installing packages...")
	assert.Contains(t, out, "installing foo-1.0-x86_64")
	assert.Contains(t, out, "error: could not open file")
	assert.Contains(t, out, "exit 0 (normal)")

	replayed, err := transcript.Open(recording)
	require.NoError(t, err)
	assert.Contains(t, string(replayed.Text()), "installing foo-1.0-x86_64")

	stdout.Reset()
	stderr.Reset()
	code = run(append([]string{"history", "--journal", journalPath}, flags...), nil, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "install")
	assert.Contains(t, stdout.String(), "/bin/sh -c")
}

func TestRunCommand_ExitsOne_When_CommandFails(t *testing.T) {
	requireUnix(t)
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer

	args := append(append([]string{"run", "--format", "plain"}, flags...), "--", "/bin/sh", "-c", "exit 3")
	code := run(args, nil, &stdout, &stderr)

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout.String(), "exit 3 (normal)")
}

func TestRunCommand_RequiresCommand(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"run"}, flags...), nil, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "no command given")
}

func TestHistory_Fails_When_JournalOff(t *testing.T) {
	flags := isolate(t, "[options]\n")
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"history"}, flags...), nil, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "journal is off")
}
