// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists fetched paper batches in a local SQLite
// database so rankings and reports can be re-run without hitting the
// feed again.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-radar/pkg/types"
)

const dbFile = "papers.db"

// Store manages the paper archive database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at dataDir/papers.db,
// creating the schema if it does not exist.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			authors TEXT,
			categories TEXT,
			published TEXT,
			url TEXT,
			fetched_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SavePapers upserts a fetched batch. Re-fetched papers replace their
// previous row so revised titles or abstracts win.
func (s *Store) SavePapers(ctx context.Context, papers []types.Paper) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO papers
		(id, title, abstract, authors, categories, published, url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			authors = excluded.authors,
			categories = excluded.categories,
			published = excluded.published,
			url = excluded.url,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range papers {
		authors, err := json.Marshal(p.Authors)
		if err != nil {
			return fmt.Errorf("encoding authors for %s: %w", p.ID, err)
		}
		categories, err := json.Marshal(p.Categories)
		if err != nil {
			return fmt.Errorf("encoding categories for %s: %w", p.ID, err)
		}

		_, err = stmt.ExecContext(ctx, p.ID, p.Title, p.Abstract,
			string(authors), string(categories),
			p.Published.UTC().Format(time.RFC3339), p.URL, now)
		if err != nil {
			return fmt.Errorf("upserting paper %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// RecentPapers returns archived papers published at or after since,
// newest first.
func (s *Store) RecentPapers(ctx context.Context, since time.Time) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, abstract, authors, categories, published, url
		FROM papers WHERE published >= ? ORDER BY published DESC`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var p types.Paper
		var authors, categories, published string
		if err := rows.Scan(&p.ID, &p.Title, &p.Abstract, &authors, &categories, &published, &p.URL); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
			return nil, fmt.Errorf("decoding categories for %s: %w", p.ID, err)
		}
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			p.Published = t
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Count returns the number of archived papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}
