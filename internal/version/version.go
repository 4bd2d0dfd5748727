// Package version holds build metadata stamped by `mage build`.
package version

import "fmt"

// Set with -ldflags "-X github.com/dkoosis/pacfo/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String is the one-line version banner.
func String() string {
	return fmt.Sprintf("pacfo %s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
