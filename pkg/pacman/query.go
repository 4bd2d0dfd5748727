package pacman

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultBinary is the pacman executable looked up on PATH.
const DefaultBinary = "pacman"

// ExecFunc runs name with args and returns its standard output.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Query answers installed-package questions by asking pacman. Answers are
// cached for the lifetime of the Query; use a new one per transaction.
type Query struct {
	binary  string
	exec    ExecFunc
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]bool
}

// QueryOption customizes a Query.
type QueryOption func(*Query)

// WithBinary sets the pacman executable.
func WithBinary(path string) QueryOption {
	return func(q *Query) { q.binary = path }
}

// WithExec replaces the process runner, mainly for tests.
func WithExec(fn ExecFunc) QueryOption {
	return func(q *Query) { q.exec = fn }
}

// WithTimeout bounds each pacman invocation.
func WithTimeout(d time.Duration) QueryOption {
	return func(q *Query) { q.timeout = d }
}

func NewQuery(opts ...QueryOption) *Query {
	q := &Query{
		binary:  DefaultBinary,
		exec:    execCommand,
		timeout: 5 * time.Second,
		cache:   make(map[string]bool),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// IsInstalled reports whether name is in the local database. Any failure to
// run pacman counts as "not installed".
func (q *Query) IsInstalled(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if v, ok := q.cache[name]; ok {
		return v
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	_, err := q.exec(ctx, q.binary, "-Qq", name)
	q.cache[name] = err == nil
	return err == nil
}

// Installed lists every installed package and primes the cache with them.
func (q *Query) Installed(ctx context.Context) ([]string, error) {
	out, err := q.exec(ctx, q.binary, "-Qq")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pacman -Qq exited %d: %w", exitErr.ExitCode(), err)
		}
		return nil, fmt.Errorf("pacman -Qq: %w", err)
	}

	names := strings.Fields(string(out))
	q.mu.Lock()
	for _, n := range names {
		q.cache[n] = true
	}
	q.mu.Unlock()
	return names, nil
}
