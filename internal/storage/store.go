// Package storage keeps the SQLite-backed index of uploaded assets. The
// blob bytes live on disk under the upload directory; this index only
// records what was stored under which name, mirroring the gateway's
// overwrite-on-collision semantics with an upsert keyed by name.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5000

// Store wraps the SQLite handle and exposes the asset index operations.
type Store struct {
	db *sql.DB
}

// Asset is one row of the upload index. A re-upload under the same name
// replaces the row, so there is at most one row per name.
type Asset struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"sizeBytes"`
	SHA256     string    `json:"sha256"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NewStore initializes the SQLite database at the provided path. Call Close
// when done.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "huddle.db"
	}
	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "file:"), strings.HasPrefix(path, ":memory:"):
		// already in a form sqlite understands
	default:
		path = "file:" + path
	}
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout=%d", path, separator, defaultBusyTimeout)
}

// Migrate runs the schema creation statements.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS assets (
		name TEXT PRIMARY KEY,
		size_bytes INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL
	);`)
	return err
}

// RecordAsset inserts the asset or, when the name already exists, replaces
// the previous row. Last write wins, like the bytes on disk.
func (s *Store) RecordAsset(ctx context.Context, asset Asset) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assets(name, size_bytes, sha256, uploaded_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			sha256 = excluded.sha256,
			uploaded_at = excluded.uploaded_at`,
		asset.Name, asset.SizeBytes, asset.SHA256, asset.UploadedAt.UTC())
	return err
}

// GetAsset fetches one row by name, or nil when the name was never uploaded.
func (s *Store) GetAsset(ctx context.Context, name string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, size_bytes, sha256, uploaded_at FROM assets WHERE name = ?`, name)
	var asset Asset
	if err := row.Scan(&asset.Name, &asset.SizeBytes, &asset.SHA256, &asset.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

// ListAssets returns the index ordered by upload time, newest first.
func (s *Store) ListAssets(ctx context.Context) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, size_bytes, sha256, uploaded_at FROM assets ORDER BY uploaded_at DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	assets := make([]Asset, 0)
	for rows.Next() {
		var asset Asset
		if err := rows.Scan(&asset.Name, &asset.SizeBytes, &asset.SHA256, &asset.UploadedAt); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}
