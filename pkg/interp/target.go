package interp

import "strings"

// TargetFilter decides whether a token taken from a progress bracket names a
// real transaction target rather than a parser artifact.
type TargetFilter func(token string, ctx Context) bool

// DefaultArchSuffixes are the architecture markers a target token must carry.
var DefaultArchSuffixes = []string{"-i686", "-x86_64", "-any"}

// ArchTargetFilter accepts tokens containing one of suffixes, or
// DefaultArchSuffixes when none are given. Bare repository names are valid
// while synchronizing databases.
func ArchTargetFilter(suffixes ...string) TargetFilter {
	if len(suffixes) == 0 {
		suffixes = DefaultArchSuffixes
	}
	return func(token string, ctx Context) bool {
		if ctx == ContextSyncDatabases {
			return true
		}
		for _, s := range suffixes {
			if strings.Contains(token, s) {
				return true
			}
		}
		return false
	}
}

// InstalledChecker answers whether a package is installed on the system.
type InstalledChecker interface {
	IsInstalled(name string) bool
}

var knownArches = map[string]bool{
	"any": true, "i686": true, "x86_64": true, "aarch64": true, "armv7h": true,
}

// PackageName strips trailing version, release and architecture segments
// from a target token, so "foo-bar-1.2-3-x86_64" becomes "foo-bar".
func PackageName(token string) string {
	token = strings.TrimSuffix(strings.TrimSpace(token), "...")
	if i := strings.Index(token, ".pkg.tar"); i > 0 {
		token = token[:i]
	}
	parts := strings.Split(token, "-")
	n := len(parts)
	for n > 1 {
		p := parts[n-1]
		if knownArches[p] || (p != "" && p[0] >= '0' && p[0] <= '9') {
			n--
			continue
		}
		break
	}
	return strings.Join(parts[:n], "-")
}
