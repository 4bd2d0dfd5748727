package interp

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownContext is returned by ParseContext for names it does not recognize.
var ErrUnknownContext = errors.New("unknown command context")

// Context is the operation driving interpretation of a run.
type Context int

const (
	ContextNone Context = iota
	ContextInstall
	ContextRemove
	ContextRemoveInstall
	ContextSystemUpgrade
	ContextSyncDatabases
	ContextMirrorCheck
	ContextRunInTerminal
	ContextSystemUpgradeInTerminal
	ContextRemoveForeign
)

var contextNames = map[Context]string{
	ContextNone:                    "none",
	ContextInstall:                 "install",
	ContextRemove:                  "remove",
	ContextRemoveInstall:           "remove-install",
	ContextSystemUpgrade:           "system-upgrade",
	ContextSyncDatabases:           "sync-db",
	ContextMirrorCheck:             "mirror-check",
	ContextRunInTerminal:           "terminal",
	ContextSystemUpgradeInTerminal: "system-upgrade-terminal",
	ContextRemoveForeign:           "remove-foreign",
}

var contextBanners = map[Context]string{
	ContextMirrorCheck:             "Checking mirrors...",
	ContextSyncDatabases:           syncDatabasesLabel,
	ContextSystemUpgrade:           "Upgrading system...",
	ContextRemove:                  "Removing packages...",
	ContextInstall:                 "Installing packages...",
	ContextRemoveInstall:           "Removing and installing packages...",
	ContextRunInTerminal:           "Running command in terminal...",
	ContextSystemUpgradeInTerminal: "Running command in terminal...",
	ContextRemoveForeign:           "Removing foreign packages...",
}

func (c Context) String() string {
	if name, ok := contextNames[c]; ok {
		return name
	}
	return fmt.Sprintf("context(%d)", int(c))
}

// ParseContext maps a context name such as "install" or "sync-db" to a Context.
func ParseContext(name string) (Context, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for c, n := range contextNames {
		if n == want {
			return c, nil
		}
	}
	return ContextNone, fmt.Errorf("%w: %q", ErrUnknownContext, name)
}

// ContextNames lists the accepted context names in sorted order.
func ContextNames() []string {
	names := make([]string, 0, len(contextNames))
	for c, n := range contextNames {
		if c != ContextNone {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Terminal reports whether the run is handed to a terminal untouched.
func (c Context) Terminal() bool {
	return c == ContextRunInTerminal || c == ContextSystemUpgradeInTerminal
}

// tracksTargets reports whether progress brackets in this context name
// transaction targets.
func (c Context) tracksTargets() bool {
	switch c {
	case ContextInstall, ContextSystemUpgrade, ContextSyncDatabases, ContextRemove, ContextRemoveInstall:
		return true
	}
	return false
}

// Banner is the one-off line shown when a run in this context starts.
func (c Context) Banner() string {
	return contextBanners[c]
}

// Controller holds the active context and the can-cancel signal for a run.
type Controller struct {
	active    Context
	canCancel bool
	listeners []func(bool)
}

// NewController returns a controller for ctx. Cancelling is allowed until a
// non-cancelable phase begins.
func NewController(ctx Context) *Controller {
	return &Controller{active: ctx, canCancel: true}
}

// Set makes ctx the active context. Call it before the subprocess starts.
func (c *Controller) Set(ctx Context) {
	c.active = ctx
	c.canCancel = true
}

// Get returns the active context.
func (c *Controller) Get() Context {
	return c.active
}

// CanCancel reports whether the current phase may be cancelled.
func (c *Controller) CanCancel() bool {
	return c.canCancel
}

// OnCanCancel registers fn to be called whenever the can-cancel signal changes.
func (c *Controller) OnCanCancel(fn func(bool)) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

func (c *Controller) setCanCancel(v bool) {
	if c.canCancel == v {
		return
	}
	c.canCancel = v
	for _, fn := range c.listeners {
		fn(v)
	}
}
