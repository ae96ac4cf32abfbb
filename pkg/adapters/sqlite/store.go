// Package sqlite persists pages in a single SQLite file.
//
// Working copies and published snapshots live in separate tables so that
// publishing never touches the autosaved draft.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/lattice/pkg/domain"
	_ "modernc.org/sqlite"
)

// Store implements ports.DocumentStore and ports.Publisher on SQLite.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
// Use ":memory:" for a throwaway database.
func New(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single database.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS published (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			published_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts the working copy of a page.
func (s *Store) Save(ctx context.Context, pageID string, doc domain.Document) error {
	return s.upsert(ctx, "pages", "updated_at", pageID, doc)
}

// Publish upserts the published snapshot of a page.
func (s *Store) Publish(ctx context.Context, pageID string, doc domain.Document) error {
	return s.upsert(ctx, "published", "published_at", pageID, doc)
}

func (s *Store) upsert(ctx context.Context, table, stampCol, pageID string, doc domain.Document) error {
	if pageID == "" {
		return fmt.Errorf("pageID cannot be empty")
	}
	if doc == nil {
		doc = domain.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, document) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, %s = CURRENT_TIMESTAMP`,
		table, stampCol,
	)
	if _, err := s.conn.ExecContext(ctx, query, pageID, string(data)); err != nil {
		return fmt.Errorf("save %s %q: %w", table, pageID, err)
	}
	return nil
}

// Load returns the working copy, or domain.ErrPageNotFound.
func (s *Store) Load(ctx context.Context, pageID string) (domain.Document, error) {
	return s.get(ctx, "pages", pageID)
}

// Published returns the last published snapshot, or domain.ErrPageNotFound.
func (s *Store) Published(ctx context.Context, pageID string) (domain.Document, error) {
	return s.get(ctx, "published", pageID)
}

func (s *Store) get(ctx context.Context, table, pageID string) (domain.Document, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, "SELECT document FROM "+table+" WHERE id = ?", pageID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", table, pageID, err)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal page: %w", err)
	}
	return doc, nil
}

// Delete removes the working copy. Deleting a missing page is not an error.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM pages WHERE id = ?", pageID); err != nil {
		return fmt.Errorf("delete page %q: %w", pageID, err)
	}
	return nil
}

// List returns the ids of all working copies, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT id FROM pages ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan page id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
