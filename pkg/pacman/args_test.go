package pacman

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoosis/pacfo/pkg/interp"
)

func TestContextForArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want interp.Context
	}{
		{"system upgrade", []string{"pacman", "-Syu"}, interp.ContextSystemUpgrade},
		{"sudo wrapper", []string{"sudo", "pacman", "-Syu", "--noconfirm"}, interp.ContextSystemUpgrade},
		{"env assignment", []string{"env", "LANG=C", "/usr/bin/pacman", "-S", "foo"}, interp.ContextInstall},
		{"sync databases", []string{"pacman", "-Sy"}, interp.ContextSyncDatabases},
		{"long options", []string{"pacman", "--sync", "--refresh"}, interp.ContextSyncDatabases},
		{"install", []string{"pacman", "-S", "foo", "bar"}, interp.ContextInstall},
		{"local upgrade", []string{"pacman", "-U", "foo-1.0-1-x86_64.pkg.tar.zst"}, interp.ContextInstall},
		{"remove", []string{"pacman", "-Rns", "foo"}, interp.ContextRemove},
		{"query is not a transaction", []string{"pacman", "-Qi", "foo"}, interp.ContextNone},
		{"other binary", []string{"yay", "-Syu"}, interp.ContextNone},
		{"empty", nil, interp.ContextNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextForArgs(tt.argv))
		})
	}
}
