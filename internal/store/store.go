// Package store keeps a SQLite catalogue of extracted spells, keyed by
// spell id and deduplicated by source content hash.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/grimoire/internal/spell"
	"github.com/dgallion1/grimoire/internal/store/migrations"
)

// ErrNotFound is returned when no spell matches.
var ErrNotFound = errors.New("spell not found")

// Record is one stored spell. Spell holds the interchange document
// exactly as it was rendered at extraction time.
type Record struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	ContentHash string          `json:"content_hash"`
	Spell       json.RawMessage `json:"spell"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Store is a SQLite-backed spell catalogue.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Put inserts or replaces the spell with sp.ID.
func (s *Store) Put(ctx context.Context, sp *spell.Spell, contentHash string) error {
	doc, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("marshalling spell: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO spells (id, source, name, category, content_hash, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			name = excluded.name,
			category = excluded.category,
			content_hash = excluded.content_hash,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, sp.ID, sp.Source, strings.TrimSpace(sp.Name), sp.Category, contentHash, string(doc), now, now)
	if err != nil {
		return fmt.Errorf("saving spell: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, source, name, category, content_hash, document, created_at, updated_at FROM spells`

// Get retrieves a spell by id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanRecord(row)
}

// FindByHash returns a spell extracted from content with the given hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE content_hash = ? ORDER BY id LIMIT 1`, hash)
	return scanRecord(row)
}

// List returns spells ordered by id, optionally filtered by category.
// A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, category string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	query := selectColumns
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing spells: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored spells.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spells`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting spells: %w", err)
	}
	return n, nil
}

// Delete removes a spell by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM spells WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting spell: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting spell: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r                Record
		doc              string
		created, updated string
	)
	err := row.Scan(&r.ID, &r.Source, &r.Name, &r.Category, &r.ContentHash, &doc, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scanning spell: %w", err)
	}
	r.Spell = json.RawMessage(doc)
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return r, nil
}
