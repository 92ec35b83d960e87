package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"

	_ "modernc.org/sqlite"
)

const (
	DefaultPath = "neis_cache.db"
	// MemoryPath opens a private database that disappears on Close.
	MemoryPath = ":memory:"
)

// Store keeps registry lookups in a SQLite table, one row per query key.
type Store struct {
	db *sql.DB
}

var _ ports.LookupCacheStore = (*Store)(nil)

func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// A single connection keeps the in-memory database usable across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS lookup_cache (
			query       TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			code        TEXT NOT NULL DEFAULT '',
			office_code TEXT NOT NULL DEFAULT '',
			office_name TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			raw_json    TEXT,
			cached_at   INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate cache database: %w", err)
		}
	}

	return nil
}

func (s *Store) Load(ctx context.Context) (map[string]domain.SchoolRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT query, name, code, office_code, office_name, location, raw_json, cached_at FROM lookup_cache`)
	if err != nil {
		return nil, fmt.Errorf("query lookup cache: %w", err)
	}
	defer rows.Close()

	entries := map[string]domain.SchoolRecord{}
	for rows.Next() {
		var (
			key      string
			record   domain.SchoolRecord
			raw      sql.NullString
			cachedAt int64
		)
		if err := rows.Scan(&key, &record.Name, &record.Code, &record.OfficeCode, &record.OfficeName, &record.Location, &raw, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan lookup cache row: %w", err)
		}
		if raw.Valid && raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &record.Raw); err != nil {
				return nil, fmt.Errorf("decode raw registry row for %q: %w", key, err)
			}
		}
		if cachedAt > 0 {
			record.CachedAt = time.Unix(0, cachedAt).UTC()
		}
		entries[key] = record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read lookup cache: %w", err)
	}

	return entries, nil
}

// Save replaces the table contents with entries in one transaction.
func (s *Store) Save(ctx context.Context, entries map[string]domain.SchoolRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lookup_cache`); err != nil {
		return fmt.Errorf("clear lookup cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lookup_cache(query, name, code, office_code, office_name, location, raw_json, cached_at) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for key, record := range entries {
		var raw sql.NullString
		if record.Raw != nil {
			encoded, err := json.Marshal(record.Raw)
			if err != nil {
				return fmt.Errorf("encode raw registry row for %q: %w", key, err)
			}
			raw = sql.NullString{String: string(encoded), Valid: true}
		}

		var cachedAt int64
		if !record.CachedAt.IsZero() {
			cachedAt = record.CachedAt.UnixNano()
		}

		if _, err := stmt.ExecContext(ctx, key, record.Name, record.Code, record.OfficeCode, record.OfficeName, record.Location, raw, cachedAt); err != nil {
			return fmt.Errorf("insert lookup cache row %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lookup cache: %w", err)
	}

	return nil
}

// Health returns an error when the database cannot be reached.
func (s *Store) Health(ctx context.Context) error {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&v); err != nil {
		return fmt.Errorf("cache database health: %w", err)
	}

	return nil
}
