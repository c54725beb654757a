// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/datacopilot-tui/internal/api"
)

// DefaultKeep is how many calls Prune retains by default.
const DefaultKeep = 5000

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal closed")

// Entry is one journaled call.
type Entry struct {
	ID        string
	RequestID string
	Method    string
	Route     string
	Status    int
	Duration  time.Duration
	Error     string
	At        time.Time
}

// Failed reports whether the call ended in an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Journal stores a record of every remote call. It never stores bodies,
// usernames or passwords; only routes and outcomes.
type Journal struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *zap.Logger
	closed bool
}

// Open opens (creating if needed) the journal at path.
// Use ":memory:" for a throwaway journal.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

// Record implements api.Recorder. Failures are logged, never returned, so a
// broken journal cannot affect a remote call.
func (j *Journal) Record(rec api.CallRecord) {
	if err := j.Add(context.Background(), rec); err != nil {
		j.logger.Warn("Failed to journal call",
			zap.String("route", rec.Route),
			zap.String("request_id", rec.RequestID),
			zap.Error(err))
	}
}

// Add inserts one call record.
func (j *Journal) Add(ctx context.Context, rec api.CallRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO calls (id, request_id, method, route, status, duration_ms, error, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.RequestID, rec.Method, rec.Route, rec.Status,
		rec.Duration.Milliseconds(), rec.Err, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

// Recent returns up to limit calls, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, request_id, method, route, status, duration_ms, error, at
		 FROM calls ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
			atMs       int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Method, &e.Route, &e.Status,
			&durationMs, &e.Error, &atMs); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.At = time.UnixMilli(atMs)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calls: %w", err)
	}
	return entries, nil
}

// Stats summarises the journal.
type Stats struct {
	Total    int
	Failures int
}

// Stats returns call counts.
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return Stats{}, ErrClosed
	}

	var s Stats
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0) FROM calls`).
		Scan(&s.Total, &s.Failures)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count calls: %w", err)
	}
	return s, nil
}

// Prune deletes all but the newest keep calls and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, ErrClosed
	}
	if keep < 0 {
		keep = 0
	}

	res, err := j.db.ExecContext(ctx,
		`DELETE FROM calls WHERE rowid NOT IN (
			SELECT rowid FROM calls ORDER BY at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune calls: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the database. It is safe to call more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
