package version

import "testing"

func TestString(t *testing.T) {
	Version, CommitHash, BuildDate = "1.2.3", "abc123", "2026-01-02"
	t.Cleanup(func() { Version, CommitHash, BuildDate = "dev", "unknown", "unknown" })

	if got, want := String(), "pacfo 1.2.3 (commit abc123, built 2026-01-02)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
