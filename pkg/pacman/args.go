package pacman

import (
	"path/filepath"
	"strings"

	"github.com/dkoosis/pacfo/pkg/interp"
)

var longOps = map[string]byte{
	"--sync":       'S',
	"--remove":     'R',
	"--upgrade":    'U',
	"--refresh":    'y',
	"--sysupgrade": 'u',
}

// wrappers are commands that run pacman on the user's behalf.
var wrappers = map[string]bool{"sudo": true, "doas": true, "pkexec": true, "env": true}

// ContextForArgs picks the interpreter context for a pacman command line such
// as ["sudo", "pacman", "-Syu"]. It returns interp.ContextNone when argv is
// not a pacman transaction it knows.
func ContextForArgs(argv []string) interp.Context {
	args := argv
	for len(args) > 0 && (wrappers[filepath.Base(args[0])] || strings.Contains(args[0], "=")) {
		args = args[1:]
	}
	if len(args) == 0 || filepath.Base(args[0]) != DefaultBinary {
		return interp.ContextNone
	}

	var ops []byte
	targets := 0
	for _, a := range args[1:] {
		switch {
		case strings.HasPrefix(a, "--"):
			if op, ok := longOps[a]; ok {
				ops = append(ops, op)
			}
		case strings.HasPrefix(a, "-") && len(a) > 1:
			ops = append(ops, a[1:]...)
		default:
			targets++
		}
	}
	has := func(c byte) bool { return strings.IndexByte(string(ops), c) >= 0 }

	switch {
	case has('R'):
		return interp.ContextRemove
	case has('U'):
		return interp.ContextInstall
	case has('S') && has('u'):
		return interp.ContextSystemUpgrade
	case has('S') && has('y') && targets == 0:
		return interp.ContextSyncDatabases
	case has('S') && targets > 0:
		return interp.ContextInstall
	}
	return interp.ContextNone
}
