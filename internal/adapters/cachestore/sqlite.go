package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS records (
	url     TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	version TEXT NOT NULL,
	hash    TEXT NOT NULL
)`

// SQLiteStore keeps records in a SQLite table. Each Set is its own
// transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var (
	_ mirror.Cache  = (*SQLiteStore)(nil)
	_ mirror.Lister = (*SQLiteStore)(nil)
)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, sqliteError(path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get looks up url.
func (s *SQLiteStore) Get(ctx context.Context, url string) (mirror.Record, bool, error) {
	var dto recordDTO
	err := s.db.QueryRowContext(ctx,
		`SELECT url, name, version, hash FROM records WHERE url = ?`, url,
	).Scan(&dto.URL, &dto.Name, &dto.Version, &dto.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return mirror.Record{}, false, nil
	}
	if err != nil {
		return mirror.Record{}, false, sqliteError(s.path, err)
	}

	r, err := fromDTO(url, dto)
	if err != nil {
		return mirror.Record{}, false, err
	}
	return r, true, nil
}

// Set upserts the record for url.
func (s *SQLiteStore) Set(ctx context.Context, url string, record mirror.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO records (url, name, version, hash) VALUES (?, ?, ?, ?)`,
		url, record.Name, record.Version, record.Hash,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, sqliteError(s.path, err))
	}
	return nil
}

// Entries returns every stored record keyed by URL.
func (s *SQLiteStore) Entries(ctx context.Context) (map[string]mirror.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, name, version, hash FROM records ORDER BY url`)
	if err != nil {
		return nil, sqliteError(s.path, err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]mirror.Record)
	for rows.Next() {
		var key string
		var dto recordDTO
		if err := rows.Scan(&key, &dto.Name, &dto.Version, &dto.Hash); err != nil {
			return nil, sqliteError(s.path, err)
		}
		dto.URL = key
		r, err := fromDTO(key, dto)
		if err != nil {
			return nil, err
		}
		records[key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(s.path, err)
	}
	return records, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteError marks damaged or foreign database files as corrupt.
func sqliteError(path string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrNotADB || sqliteErr.Code == sqlite3.ErrCorrupt) {
		return fmt.Errorf("%w: %s: %w", mirror.ErrCacheCorrupt, path, err)
	}
	return fmt.Errorf("sqlite cache %s: %w", path, err)
}
