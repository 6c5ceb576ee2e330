// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [dois...]",
	Short: "Fetch BibTeX records by DOI and print them normalized",
	Long: `Fetch asks the DOI resolver for each record as BibTeX, parses the
combined result, and writes it in the chosen format. Rate-limited requests
are retried with exponential backoff. Progress goes to standard error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	addParserFlags(fetchCmd)
	fetchCmd.Flags().StringP("format", "f", "bibtex", "output format: bibtex, json, yaml, csl")
	fetchCmd.Flags().StringP("output", "o", "", "write to file instead of standard output")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive requests (default from config)")
	fetchCmd.Flags().String("mailto", "", "contact address sent in the User-Agent")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	fc := cfg.Fetch
	if d, _ := cmd.Flags().GetDuration("delay"); d > 0 {
		fc.Delay = d
	}
	if m, _ := cmd.Flags().GetString("mailto"); m != "" {
		fc.Mailto = m
	}

	client := fetch.NewClient(fc, bibliography.NewParser(parserOptions(cmd), nil))
	result, err := client.FetchBatch(cmd.Context(), args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logDiagnostics(result.Bibliography.Diagnostics)

	if err := writeOutput(cmd, output, format, result.Bibliography); err != nil {
		return err
	}

	if result.HasFailures() {
		return fmt.Errorf("%d of %d DOI(s) failed", result.Failed, result.Total())
	}
	return nil
}
