// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog indexes persisted recordings in SQLite so they can be
// listed without parsing every file.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/artnetviz/internal/persistence/sqlite"
	"github.com/ManuGH/artnetviz/internal/recorder"
)

// ErrNotFound is returned by Get for unknown paths.
var ErrNotFound = errors.New("catalog: recording not found")

// Catalog is a SQLite index of recordings.
type Catalog struct {
	db *sql.DB
}

var _ recorder.Indexer = (*Catalog)(nil)

// Open opens or creates the catalog at path and migrates its schema.
func Open(ctx context.Context, path string, cfg sqlite.Config) (*Catalog, error) {
	db, err := sqlite.Open(ctx, path, cfg)
	if err != nil {
		return nil, err
	}
	c := &Catalog{db: db}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		path TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		frame_rate INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		universes TEXT NOT NULL DEFAULT '[]',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		mod_time TEXT,
		indexed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recordings_timestamp ON recordings(timestamp);
	`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Index inserts or replaces the entry for info.Path.
func (c *Catalog) Index(ctx context.Context, info recorder.Info) error {
	if err := upsert(ctx, c.db, info); err != nil {
		return fmt.Errorf("index %s: %w", info.Path, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, info recorder.Info) error {
	universes, err := json.Marshal(info.Universes)
	if err != nil {
		return err
	}
	var modTime sql.NullString
	if !info.ModTime.IsZero() {
		modTime = sql.NullString{String: info.ModTime.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query := `
	INSERT INTO recordings (path, filename, timestamp, frame_count, frame_rate, duration, universes, size_bytes, mod_time, indexed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		filename = excluded.filename,
		timestamp = excluded.timestamp,
		frame_count = excluded.frame_count,
		frame_rate = excluded.frame_rate,
		duration = excluded.duration,
		universes = excluded.universes,
		size_bytes = excluded.size_bytes,
		mod_time = excluded.mod_time,
		indexed_at = excluded.indexed_at
	`
	_, err = ex.ExecContext(ctx, query,
		info.Path, info.Filename, info.Timestamp, info.FrameCount, info.FrameRate,
		info.Duration, string(universes), info.Size, modTime,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

const selectColumns = `path, filename, timestamp, frame_count, frame_rate, duration, universes, size_bytes, mod_time`

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(s scanner) (recorder.Info, error) {
	var (
		info      recorder.Info
		universes string
		modTime   sql.NullString
	)
	if err := s.Scan(&info.Path, &info.Filename, &info.Timestamp, &info.FrameCount,
		&info.FrameRate, &info.Duration, &universes, &info.Size, &modTime); err != nil {
		return recorder.Info{}, err
	}
	if err := json.Unmarshal([]byte(universes), &info.Universes); err != nil {
		return recorder.Info{}, fmt.Errorf("decode universes of %s: %w", info.Path, err)
	}
	if modTime.Valid {
		if t, err := time.Parse(time.RFC3339Nano, modTime.String); err == nil {
			info.ModTime = t
		}
	}
	return info, nil
}

// List returns every indexed recording, newest first.
func (c *Catalog) List(ctx context.Context) ([]recorder.Info, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM recordings ORDER BY timestamp DESC, filename DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []recorder.Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Get returns the entry for path.
func (c *Catalog) Get(ctx context.Context, path string) (recorder.Info, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM recordings WHERE path = ?`, path)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return recorder.Info{}, ErrNotFound
	}
	return info, err
}

// Remove deletes the entry for path. Removing an unknown path is not an error.
func (c *Catalog) Remove(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM recordings WHERE path = ?`, path)
	return err
}

// Lister enumerates recordings on disk.
type Lister interface {
	List(ctx context.Context) ([]recorder.Info, error)
}

// Sync replaces the index with what store reports. It returns the number
// of indexed recordings.
func (c *Catalog) Sync(ctx context.Context, store Lister) (int, error) {
	infos, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recordings`); err != nil {
		return 0, err
	}
	for _, info := range infos {
		if err := upsert(ctx, tx, info); err != nil {
			return 0, fmt.Errorf("index %s: %w", info.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(infos), nil
}

// Check verifies the database is reachable and structurally sound.
func (c *Catalog) Check(ctx context.Context) error {
	issues, err := sqlite.QuickCheck(ctx, c.db)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return fmt.Errorf("catalog integrity: %v", issues)
	}
	return nil
}
