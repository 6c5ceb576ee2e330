// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps parsed bibliography entries in a SQLite database
// with a full-text index over titles and author names.
//
// The index uses FTS5, which mattn/go-sqlite3 compiles in only with the
// sqlite_fts5 build tag. Without it the store still works and text
// queries fall back to substring matching.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/pkg/types"
)

const dbFile = "bibmagic.db"

// ErrNotFound is returned by Lookup for an unknown citation key.
var ErrNotFound = errors.New("entry not found")

// Store manages the bibliography SQLite database.
type Store struct {
	db         *sql.DB
	parser     *bibliography.Parser
	maxResults int

	// fts is true when the entries_fts index is available.
	fts bool
}

// NewStore opens or creates cfg.Dir/bibmagic.db and creates the schema if
// it does not exist. Files are parsed with parser.
func NewStore(cfg types.StoreConfig, parser *bibliography.Parser) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if parser == nil {
		parser = bibliography.NewParser(types.DefaultParserOptions(), nil)
	}

	s := &Store{db: db, parser: parser, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			file TEXT NOT NULL REFERENCES files(path),
			title TEXT,
			year TEXT,
			authors TEXT,
			bibtex TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_file ON entries(file)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type)`,
		`CREATE TABLE IF NOT EXISTS authors (
			entry_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			von_last TEXT NOT NULL,
			jr TEXT,
			first TEXT,
			PRIMARY KEY (entry_key, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_authors_von_last ON authors(von_last)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var available int
	if err := s.db.QueryRow(`SELECT sqlite_compileoption_used('ENABLE_FTS5')`).Scan(&available); err != nil {
		return fmt.Errorf("checking FTS5 support: %w", err)
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='entries_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if available == 0 {
		if ftsExists > 0 {
			return errors.New("database has a full-text index but this build lacks FTS5 (build with -tags sqlite_fts5)")
		}
		return nil
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE entries_fts USING fts5(title, authors, content=entries, content_rowid=rowid)`,
			`CREATE TRIGGER entries_ai AFTER INSERT ON entries BEGIN
				INSERT INTO entries_fts(rowid, title, authors) VALUES (new.rowid, new.title, new.authors);
			END`,
			`CREATE TRIGGER entries_ad AFTER DELETE ON entries BEGIN
				INSERT INTO entries_fts(entries_fts, rowid, title, authors) VALUES('delete', old.rowid, old.title, old.authors);
			END`,
			`CREATE TRIGGER entries_au AFTER UPDATE ON entries BEGIN
				INSERT INTO entries_fts(entries_fts, rowid, title, authors) VALUES('delete', old.rowid, old.title, old.authors);
				INSERT INTO entries_fts(rowid, title, authors) VALUES (new.rowid, new.title, new.authors);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	s.fts = true
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest parses each .bib file in paths and stores its entries. Files
// whose modification time matches the last run are skipped; changed files
// have their previous entries replaced. A citation key already stored
// from another file is taken over by the newer file. Per-entry parse
// problems are printed to w and do not fail the file.
func (s *Store) Ingest(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM files WHERE path = ?`, path,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		bib := s.parser.Parse(string(data))
		for _, d := range bib.Diagnostics {
			d.Source = path
			fmt.Fprintf(w, "%v\n", d)
		}

		if err := s.ingestFile(ctx, path, bib, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d entries)\n", path, len(bib.Entries))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d entries)\n", path, len(bib.Entries))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestFile(ctx context.Context, path string, bib *types.Bibliography, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO files (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		path, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating file status: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM authors WHERE entry_key IN (SELECT key FROM entries WHERE file = ?)`, path,
	); err != nil {
		return fmt.Errorf("deleting old authors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE file = ?`, path); err != nil {
		return fmt.Errorf("deleting old entries: %w", err)
	}

	insertEntry, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (key, type, file, title, year, authors, bibtex)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insertEntry.Close()

	insertAuthor, err := tx.PrepareContext(ctx,
		`INSERT INTO authors (entry_key, position, von_last, jr, first) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing author insert: %w", err)
	}
	defer insertAuthor.Close()

	for _, e := range bib.Entries {
		key := e.Key

		// Rows are deleted explicitly rather than replaced so that the FTS
		// delete trigger fires.
		if _, err := tx.ExecContext(ctx, `DELETE FROM authors WHERE entry_key = ?`, key); err != nil {
			return fmt.Errorf("clearing authors of %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
			return fmt.Errorf("clearing entry %s: %w", key, err)
		}

		single := &types.Bibliography{Entries: []types.Entry{e}, Options: bib.Options}
		authors := e.Authors()
		_, err := insertEntry.ExecContext(ctx,
			key, e.Type, path, e.Field("title"), e.Field("year"),
			authors.String(), bibliography.ToBibTeX(single),
		)
		if err != nil {
			return fmt.Errorf("inserting entry %s: %w", key, err)
		}

		for i, a := range authors {
			if _, err := insertAuthor.ExecContext(ctx, key, i, a.VonLast, a.Jr, a.First); err != nil {
				return fmt.Errorf("inserting author of %s: %w", key, err)
			}
		}
	}

	return tx.Commit()
}
