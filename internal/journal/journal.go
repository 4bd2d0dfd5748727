// Package journal keeps a local SQLite history of interpreted runs so past
// transactions can be listed and their recordings found again.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Pure Go SQLite driver (no CGO)
	_ "modernc.org/sqlite"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("journal entry not found")

// Journal stores one row per run. A Journal opened with an empty path is
// disabled: writes are dropped and reads return nothing.
type Journal struct {
	db *sql.DB
}

// Entry is one run.
type Entry struct {
	RunID     string
	Started   time.Time
	Context   string
	Command   string
	ExitCode  int
	Status    string
	Cancelled bool
	Duration  time.Duration
	// Digest is the BLAKE3 hash of the raw output.
	Digest    string
	Recording string
	Errors    int
	Warnings  int
	Packages  int
}

// NewJournal opens (creating if needed) the database at path.
func NewJournal(path string) (*Journal, error) {
	if path == "" {
		return &Journal{}, nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

// Enabled reports whether the journal writes anywhere.
func (j *Journal) Enabled() bool {
	return j.db != nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started TEXT NOT NULL,
		context TEXT NOT NULL,
		command TEXT,
		exit_code INTEGER NOT NULL,
		status TEXT NOT NULL,
		cancelled INTEGER NOT NULL,
		duration_ms INTEGER,
		digest TEXT,
		recording TEXT,
		errors INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		packages INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record stores e, replacing an entry with the same run id.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j.db == nil {
		return nil
	}
	query := `
		INSERT OR REPLACE INTO runs
		(run_id, started, context, command, exit_code, status, cancelled, duration_ms, digest, recording, errors, warnings, packages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		e.RunID,
		e.Started.UTC().Format(time.RFC3339Nano),
		e.Context,
		e.Command,
		e.ExitCode,
		e.Status,
		e.Cancelled,
		e.Duration.Milliseconds(),
		e.Digest,
		e.Recording,
		e.Errors,
		e.Warnings,
		e.Packages,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", e.RunID, err)
	}
	return nil
}

const selectColumns = `run_id, started, context, command, exit_code, status, cancelled, duration_ms, digest, recording, errors, warnings, packages`

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM runs ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry for runID.
func (j *Journal) Get(ctx context.Context, runID string) (Entry, error) {
	if j.db == nil {
		return Entry{}, ErrNotFound
	}
	row := j.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE run_id = ?`, runID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e          Entry
		started    string
		durationMS int64
		command    sql.NullString
		digest     sql.NullString
		recording  sql.NullString
	)
	if err := s.Scan(&e.RunID, &started, &e.Context, &command, &e.ExitCode, &e.Status, &e.Cancelled,
		&durationMS, &digest, &recording, &e.Errors, &e.Warnings, &e.Packages); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Entry{}, fmt.Errorf("run %s: bad start time %q: %w", e.RunID, started, err)
	}
	e.Started = t
	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.Command, e.Digest, e.Recording = command.String, digest.String, recording.String
	return e, nil
}

// Close closes the journal database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Tally counts what a run showed. Pass Observe as (part of) the interpreter sink.
type Tally struct {
	Errors   int
	Warnings int
	packages map[string]struct{}
}

// Observe updates the counts from one event.
func (t *Tally) Observe(ev interp.Event) {
	if ev.Kind != interp.KindText {
		return
	}
	switch ev.Category {
	case interp.CategoryError:
		t.Errors++
	case interp.CategoryWarning:
		t.Warnings++
	}
	if ev.Package != "" {
		if t.packages == nil {
			t.packages = make(map[string]struct{})
		}
		t.packages[ev.Package] = struct{}{}
	}
}

// Packages is the number of distinct packages named by the run.
func (t *Tally) Packages() int {
	return len(t.packages)
}

// Fill copies the counts onto e.
func (t *Tally) Fill(e *Entry) {
	e.Errors, e.Warnings, e.Packages = t.Errors, t.Warnings, t.Packages()
}
