// Package store persists user settings and export history in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gidway/videocut/pkg/util"
)

// Setting keys.
const (
	KeyUseHWAccel   = "use_hwaccel"
	KeyCodec        = "codec"
	KeyRememberSize = "remember_window_size"
	KeyWindowWidth  = "window_width"
	KeyWindowHeight = "window_height"
)

// Store wraps the settings database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath, creating parent
// directories as needed, and runs the idempotent migrations.
func Open(dbPath string) (*Store, error) {
	if err := util.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs all database migrations.
// Migrations are idempotent (safe to run multiple times).
func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS export_history (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			mark_in_seconds REAL NOT NULL,
			mark_out_seconds REAL NOT NULL,
			codec TEXT NOT NULL,
			hwaccel INTEGER NOT NULL,
			status TEXT NOT NULL,
			diagnostic TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// String returns the stored value for key, or fallback when unset.
func (s *Store) String(key, fallback string) string {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return fallback
	}
	return v
}

// SetString stores a settings value.
func (s *Store) SetString(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Bool returns a stored boolean setting.
func (s *Store) Bool(key string, fallback bool) bool {
	v := s.String(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// SetBool stores a boolean setting.
func (s *Store) SetBool(key string, value bool) error {
	return s.SetString(key, strconv.FormatBool(value))
}

// Int returns a stored integer setting.
func (s *Store) Int(key string, fallback int) int {
	v := s.String(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// SetInt stores an integer setting.
func (s *Store) SetInt(key string, value int) error {
	return s.SetString(key, strconv.Itoa(value))
}

// HistoryEntry is one completed (or failed) export.
type HistoryEntry struct {
	ID         string
	SourcePath string
	OutputPath string
	In         time.Duration
	Out        time.Duration
	Codec      string
	HWAccel    bool
	Status     string
	Diagnostic string
	CreatedAt  time.Time
}

// RecordExport appends an export outcome to the history.
func (s *Store) RecordExport(e HistoryEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO export_history
			(id, source_path, output_path, mark_in_seconds, mark_out_seconds,
			 codec, hwaccel, status, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourcePath, e.OutputPath, e.In.Seconds(), e.Out.Seconds(),
		e.Codec, e.HWAccel, e.Status, e.Diagnostic)
	return err
}

// RecentExports returns up to limit history entries, newest first.
func (s *Store) RecentExports(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, source_path, output_path, mark_in_seconds, mark_out_seconds,
		       codec, hwaccel, status, COALESCE(diagnostic, ''), created_at
		FROM export_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var inSecs, outSecs float64
		if err := rows.Scan(&e.ID, &e.SourcePath, &e.OutputPath, &inSecs, &outSecs,
			&e.Codec, &e.HWAccel, &e.Status, &e.Diagnostic, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.In = time.Duration(inSecs * float64(time.Second))
		e.Out = time.Duration(outSecs * float64(time.Second))
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
