// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Index .bib files in a local SQLite database and query them",
	Long: `Store keeps a SQLite index of parsed entries with full-text search over
titles and author names. Use subcommands to index files, query the index,
print one entry, or dump everything back as BibTeX.`,
}

var storeIndexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Parse .bib files and add their entries to the index",
	Long: `Index parses each file and stores its entries. Files unchanged since
the last run are skipped; changed files have their entries replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIndex,
}

var storeQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search indexed entries by text, type, author or year",
	Long: `Query runs an FTS5 full-text search over titles and authors, optionally
narrowed by --type, --author and --year. Full-text results are ranked by
relevance; filter-only queries are sorted by key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStoreQuery,
}

var storeGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the stored BibTeX of one entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreGet,
}

var storeDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every stored entry as BibTeX",
	Args:  cobra.NoArgs,
	RunE:  runStoreDump,
}

func init() {
	storeCmd.PersistentFlags().String("dir", "", "directory holding bibmagic.db (default from config)")

	addParserFlags(storeIndexCmd)

	storeQueryCmd.Flags().String("type", "", "filter by entry type")
	storeQueryCmd.Flags().String("author", "", "filter by author last name")
	storeQueryCmd.Flags().String("year", "", "filter by year")
	storeQueryCmd.Flags().Int("max-results", 0, "maximum number of results (default from config)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	storeCmd.AddCommand(storeIndexCmd, storeQueryCmd, storeGetCmd, storeDumpCmd)
	rootCmd.AddCommand(storeCmd)
}

func openStore(cmd *cobra.Command, parser *bibliography.Parser) (*store.Store, error) {
	sc := cfg.Store
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		sc.Dir = dir
	}
	return store.NewStore(sc, parser)
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd, bibliography.NewParser(parserOptions(cmd), nil))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(cmd.Context(), args, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	opts := store.QueryOptions{}
	if len(args) == 1 {
		opts.Query = args[0]
	}
	opts.Type, _ = cmd.Flags().GetString("type")
	opts.Author, _ = cmd.Flags().GetString("author")
	opts.Year, _ = cmd.Flags().GetString("year")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")

	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --type, --author, or --year")
	}

	s, err := openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []store.QueryResult{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-13s  %-4s  %-40s  %s\n",
		"Rank", "Key", "Type", "Year", "Title", "Authors")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-20s  %-13s  %-4s  %-40s  %s\n",
			i+1, clip(r.Key, 20), r.Type, r.Year, clip(r.Title, 40), clip(r.Authors, 30))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// clip shortens s to n runes, ending in "..." when cut.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func runStoreGet(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), r.BibTeX)
	return err
}

func runStoreDump(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.Dump(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	logger.Info("dumped", "entries", n)
	return nil
}
