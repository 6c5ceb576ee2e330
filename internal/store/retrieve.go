// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// QueryOptions holds parameters for store queries.
type QueryOptions struct {
	// Query is an FTS5 full-text search string over titles and authors.
	// Without FTS5 every whitespace-separated term must occur in the
	// title or the author list.
	Query string

	// Type filters by entry type.
	Type string

	// Author matches any author whose von Last part contains the string.
	Author string

	// Year filters by the year field.
	Year string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Type == "" && q.Author == "" && q.Year == ""
}

// QueryResult is one stored entry.
type QueryResult struct {
	Key     string `json:"key" yaml:"key"`
	Type    string `json:"type" yaml:"type"`
	File    string `json:"file" yaml:"file"`
	Title   string `json:"title" yaml:"title"`
	Year    string `json:"year,omitempty" yaml:"year,omitempty"`
	Authors string `json:"authors,omitempty" yaml:"authors,omitempty"`
	BibTeX  string `json:"bibtex" yaml:"bibtex"`
}

// Retrieve queries stored entries with optional full-text search and
// structured filters. Full-text results are ranked by relevance;
// structured-only results are sorted by key.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != "" && s.fts
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.key, e.type, e.file, e.title, e.year, e.authors, e.bibtex
			FROM entries_fts
			JOIN entries e ON e.rowid = entries_fts.rowid
			WHERE entries_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.key, e.type, e.file, e.title, e.year, e.authors, e.bibtex
			FROM entries e
			WHERE 1=1`)
		for _, term := range strings.Fields(opts.Query) {
			qb.WriteString(` AND (e.title LIKE ? ESCAPE '\' OR e.authors LIKE ? ESCAPE '\')`)
			pattern := "%" + escapeLike(term) + "%"
			args = append(args, pattern, pattern)
		}
	}

	if opts.Type != "" {
		qb.WriteString(` AND e.type = ?`)
		args = append(args, strings.ToLower(opts.Type))
	}
	if opts.Year != "" {
		qb.WriteString(` AND e.year = ?`)
		args = append(args, opts.Year)
	}
	if opts.Author != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM authors a WHERE a.entry_key = e.key AND a.von_last LIKE ? ESCAPE '\')`)
		args = append(args, "%"+escapeLike(opts.Author)+"%")
	}

	if useFTS {
		qb.WriteString(` ORDER BY entries_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.key`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Lookup returns the entry stored under key, or ErrNotFound.
func (s *Store) Lookup(ctx context.Context, key string) (QueryResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, type, file, title, year, authors, bibtex FROM entries WHERE key = ?`, key)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QueryResult{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return r, err
}

// Authors returns the stored name triplets of an entry in order.
func (s *Store) Authors(ctx context.Context, key string) (types.AuthorList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT von_last, jr, first FROM authors WHERE entry_key = ? ORDER BY position`, key)
	if err != nil {
		return nil, fmt.Errorf("querying authors: %w", err)
	}
	defer rows.Close()

	var out types.AuthorList
	for rows.Next() {
		var (
			a         types.AuthorName
			jr, first sql.NullString
		)
		if err := rows.Scan(&a.VonLast, &jr, &first); err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		a.Jr, a.First = jr.String, first.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// Dump writes every stored entry as BibTeX to w, sorted by key and
// separated by blank lines.
func (s *Store) Dump(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bibtex FROM entries ORDER BY key`)
	if err != nil {
		return 0, fmt.Errorf("querying store: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var bib string
		if err := rows.Scan(&bib); err != nil {
			return n, fmt.Errorf("scanning row: %w", err)
		}
		if n > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return n, err
			}
		}
		if _, err := io.WriteString(w, bib); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (QueryResult, error) {
	var (
		r                     QueryResult
		title, year, authors sql.NullString
	)
	if err := row.Scan(&r.Key, &r.Type, &r.File, &title, &year, &authors, &r.BibTeX); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QueryResult{}, err
		}
		return QueryResult{}, fmt.Errorf("scanning row: %w", err)
	}
	r.Title, r.Year, r.Authors = title.String, year.String, authors.String
	return r, nil
}
