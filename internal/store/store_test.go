// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := types.StoreConfig{
		Dir:        filepath.Join(tmpDir, "db"),
		MaxResults: 20,
	}
	store, err := NewStore(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeBib(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ingestHelper(t *testing.T, store *Store, paths ...string) IngestSummary {
	t.Helper()
	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), paths, &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

const library = `@article{smith2019,
  author = {John Smith and Jane Doe},
  title = {Deep learning for graphs},
  journal = {Journal of Graphs},
  year = {2019},
}

@book{knuth1984,
  author = {Donald E. Knuth},
  title = {The {TeX}book},
  publisher = {Addison-Wesley},
  year = {1984},
}

@inproceedings{neumann1945,
  author = {John von Neumann},
  title = {First draft of a report on the {EDVAC}},
  booktitle = {Moore School},
  year = {1945},
}
`

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"files", "entries", "authors"}
	if store.fts {
		tables = append(tables, "entries_fts")
	}
	for _, table := range tables {
		var name string
		err := store.db.QueryRow(
			`SELECT name FROM sqlite_master WHERE name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	_, tmpDir := testSetup(t)

	if _, err := os.Stat(filepath.Join(tmpDir, "db", dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNewStoreReopens(t *testing.T) {
	dir := t.TempDir()
	cfg := types.StoreConfig{Dir: dir}

	first, err := NewStore(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(cfg, nil)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 20, second.maxResults)
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeBib(t, tmpDir, "library.bib", library)

	summary := ingestHelper(t, store, path)
	if summary.Indexed != 1 {
		t.Errorf("Indexed = %d, want 1", summary.Indexed)
	}

	var count int
	if err := store.db.QueryRow(`SELECT count(*) FROM entries`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("stored %d entries, want 3", count)
	}

	if err := store.db.QueryRow(`SELECT count(*) FROM authors`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("stored %d authors, want 4", count)
	}
}

func TestIngestStoresFields(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))

	r, err := store.Lookup(context.Background(), "knuth1984")
	require.NoError(t, err)
	assert.Equal(t, "book", r.Type)
	assert.Equal(t, "The TeXbook", r.Title)
	assert.Equal(t, "1984", r.Year)
	assert.Equal(t, "Knuth, Donald E.", r.Authors)
	assert.True(t, strings.HasPrefix(r.BibTeX, "@book{knuth1984,\n"))
	assert.Contains(t, r.BibTeX, "title = {The {TeX}book}")

	authors, err := store.Authors(context.Background(), "neumann1945")
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, types.AuthorName{VonLast: "von Neumann", First: "John"}, authors[0])
}

func TestIngestReportsDiagnostics(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeBib(t, tmpDir, "mixed.bib", `@misc{ok, abstract = {dropped}}
@misc{bad, title = {unclosed}
`)

	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), []string{path}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)

	out := buf.String()
	assert.Contains(t, out, "warning: "+path)
	assert.Contains(t, out, "indexing "+path+" (1 entries)")
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeBib(t, tmpDir, "library.bib", library)

	ingestHelper(t, store, path)
	summary := ingestHelper(t, store, path)

	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if summary.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0", summary.Indexed)
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeBib(t, tmpDir, "library.bib", library)
	ingestHelper(t, store, path)

	writeBib(t, tmpDir, "library.bib", `@misc{fresh2024, title = {Only entry left}}`)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	summary := ingestHelper(t, store, path)
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}

	_, err := store.Lookup(context.Background(), "smith2019")
	assert.True(t, errors.Is(err, ErrNotFound))

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "graphs"})
	require.NoError(t, err)
	assert.Empty(t, results, "FTS index should drop replaced entries")

	results, err = store.Retrieve(context.Background(), QueryOptions{Query: "entry"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh2024", results[0].Key)
}

func TestIngestKeyMovesBetweenFiles(t *testing.T) {
	store, tmpDir := testSetup(t)
	a := writeBib(t, tmpDir, "a.bib", `@misc{shared, title = {Old title}}`)
	b := writeBib(t, tmpDir, "b.bib", `@misc{shared, title = {New title}}`)

	ingestHelper(t, store, a, b)

	r, err := store.Lookup(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, b, r.File)
	assert.Equal(t, "New title", r.Title)
}

func TestIngestSummaryOutput(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeBib(t, tmpDir, "library.bib", library)
	missing := filepath.Join(tmpDir, "missing.bib")

	var buf bytes.Buffer
	if _, err := store.Ingest(context.Background(), []string{path, missing}, &buf); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, want := range []string{
		"indexing " + path + " (3 entries)",
		"failed  " + missing,
		"indexed: 1, updated: 0, skipped: 0, failed: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestIngestCancelled(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeBib(t, tmpDir, "library.bib", library)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := store.Ingest(ctx, []string{path}, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestSummaryTotal(t *testing.T) {
	s := IngestSummary{Indexed: 1, Updated: 2, Skipped: 3, Failed: 4}
	if s.Total() != 10 {
		t.Errorf("Total() = %d, want 10", s.Total())
	}
}

// --- retrieve tests ---

func TestRetrieveFullTextSearch(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))

	tests := []struct {
		query string
		want  string
	}{
		{"graphs", "smith2019"},
		{"Doe", "smith2019"},
		{"EDVAC", "neumann1945"},
		{"Neumann", "neumann1945"},
	}
	for _, tt := range tests {
		results, err := store.Retrieve(context.Background(), QueryOptions{Query: tt.query})
		if err != nil {
			t.Fatalf("Retrieve(%q): %v", tt.query, err)
		}
		if len(results) != 1 || results[0].Key != tt.want {
			t.Errorf("Retrieve(%q) = %v, want [%s]", tt.query, results, tt.want)
		}
	}
}

func TestRetrieveWithoutFTS(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))
	store.fts = false
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"graphs", []string{"smith2019"}},
		{"doe GRAPHS", []string{"smith2019"}},
		{"John", []string{"neumann1945", "smith2019"}},
		{"EDVAC Knuth", nil},
		{"100%", nil},
	}
	for _, tt := range tests {
		results, err := store.Retrieve(ctx, QueryOptions{Query: tt.query})
		require.NoError(t, err, tt.query)
		var keys []string
		for _, r := range results {
			keys = append(keys, r.Key)
		}
		assert.Equal(t, tt.want, keys, tt.query)
	}

	results, err := store.Retrieve(ctx, QueryOptions{Query: "john", Type: "article"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "smith2019", results[0].Key)
}

func TestRetrieveFilters(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))
	ctx := context.Background()

	results, err := store.Retrieve(ctx, QueryOptions{Type: "BOOK"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "knuth1984", results[0].Key)

	results, err = store.Retrieve(ctx, QueryOptions{Author: "Neumann"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "neumann1945", results[0].Key)

	results, err = store.Retrieve(ctx, QueryOptions{Year: "2019", Author: "Doe"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "smith2019", results[0].Key)

	results, err = store.Retrieve(ctx, QueryOptions{Query: "graphs", Type: "book"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveStructuredSortOrder(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))

	results, err := store.Retrieve(context.Background(), QueryOptions{Year: "19"})
	require.NoError(t, err)
	assert.Empty(t, results)

	var keys []string
	all, err := store.Retrieve(context.Background(), QueryOptions{})
	require.NoError(t, err)
	for _, r := range all {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"knuth1984", "neumann1945", "smith2019"}, keys)
}

func TestRetrieveRespectsMaxResults(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))

	results, err := store.Retrieve(context.Background(), QueryOptions{MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	opts := QueryOptions{}
	if !opts.IsEmpty() {
		t.Error("empty QueryOptions should report IsEmpty() = true")
	}
	if (QueryOptions{Year: "2019"}).IsEmpty() {
		t.Error("QueryOptions with a filter should not be empty")
	}
}

func TestRetrieveNoResults(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))

	results, err := store.Retrieve(context.Background(), QueryOptions{
		Query: "nonexistent topic xyz123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

// --- lookup and dump tests ---

func TestLookupNotFound(t *testing.T) {
	store, _ := testSetup(t)

	_, err := store.Lookup(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDump(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingestHelper(t, store, writeBib(t, tmpDir, "library.bib", library))

	var buf bytes.Buffer
	n, err := store.Dump(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bib := bibliography.Parse(buf.String(), types.DefaultParserOptions())
	assert.Empty(t, bib.Diagnostics)
	assert.Equal(t, []string{"knuth1984", "neumann1945", "smith2019"}, bib.Keys())
}
