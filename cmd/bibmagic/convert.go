// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/internal/cite"
	"github.com/pdiddy/bibmagic/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Normalize BibTeX and write it as BibTeX, JSON, YAML or CSL-YAML",
	Long: `Convert parses the given .bib files (or standard input when none are
given), normalizes every supported field, and writes the result.

Entries that fail to parse are reported and left out; the rest of the file
is still converted. Use --strict to make unsupported fields fail their
entry and to exit non-zero when any entry failed.`,
	RunE: runConvert,
}

func init() {
	addParserFlags(convertCmd)
	convertCmd.Flags().StringP("format", "f", "bibtex", "output format: bibtex, json, yaml, csl")
	convertCmd.Flags().StringP("output", "o", "", "write to file instead of standard output")
	convertCmd.Flags().StringSlice("cited-in", nil, "keep only entries cited in these .tex or .md files")

	rootCmd.AddCommand(convertCmd)
}

// addParserFlags registers the switches that override cfg.Parser.
func addParserFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("latex", false, "keep LaTeX diacritic macros instead of converting to Unicode")
	cmd.Flags().Bool("single-hyphen", false, "normalize page ranges to a single hyphen")
	cmd.Flags().Bool("strict", false, "fail entries with unsupported fields instead of dropping the field")
}

// parserOptions returns cfg.Parser with the command's flag overrides.
func parserOptions(cmd *cobra.Command) types.ParserOptions {
	opts := cfg.Parser
	if v, _ := cmd.Flags().GetBool("latex"); v {
		opts.LatexToUnicode = false
	}
	if v, _ := cmd.Flags().GetBool("single-hyphen"); v {
		opts.PagesDoubleHyphened = false
	}
	if v, _ := cmd.Flags().GetBool("strict"); v {
		opts.IgnoreUnsupportedFields = false
	}
	return opts
}

// loadInput parses the named files, or standard input when there are none.
func loadInput(ctx context.Context, cmd *cobra.Command, p *bibliography.Parser, paths []string) (*types.Bibliography, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return p.Parse(string(data)), nil
	}

	files, err := bibliography.LoadFiles(ctx, p, paths)
	if err != nil {
		return nil, err
	}
	return bibliography.Merge(p.Options(), files), nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	citedIn, _ := cmd.Flags().GetStringSlice("cited-in")
	strict, _ := cmd.Flags().GetBool("strict")

	p := bibliography.NewParser(parserOptions(cmd), nil)
	bib, err := loadInput(cmd.Context(), cmd, p, args)
	if err != nil {
		return err
	}
	logDiagnostics(bib.Diagnostics)

	if len(citedIn) > 0 {
		keys, err := cite.KeysInFiles(citedIn)
		if err != nil {
			return err
		}
		for _, k := range cite.MissingKeys(keys, bib) {
			logger.Warn("cited key not in bibliography", "key", k)
		}
		diags := bib.Diagnostics
		bib = cite.Subset(bib, keys)
		bib.Diagnostics = diags
	}

	if err := writeOutput(cmd, output, format, bib); err != nil {
		return err
	}
	logger.Info("converted", "entries", len(bib.Entries), "errors", len(bib.Errors()), "warnings", len(bib.Warnings()))

	if strict && bib.HasErrors() {
		return fmt.Errorf("%d entries failed to parse", len(bib.Errors()))
	}
	return nil
}

// createOutput opens the --output file. Tests replace it.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutput writes bib in format to path, or to standard output when
// path is empty. Errors from closing the file are returned.
func writeOutput(cmd *cobra.Command, path, format string, bib *types.Bibliography) error {
	if path == "" {
		return writeFormat(cmd.OutOrStdout(), format, bib)
	}

	f, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeFormat(f, format, bib); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func writeFormat(w io.Writer, format string, bib *types.Bibliography) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "bibtex", "bib":
		return bibliography.WriteBibTeX(w, bib)
	case "csl", "csl-yaml":
		return bibliography.ToCSL(bib, w)
	case "json":
		data, err = bibliography.ToJSON(bib)
	case "yaml":
		data, err = bibliography.ToYAML(bib)
	default:
		return fmt.Errorf("unknown format %q: use bibtex, json, yaml or csl", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
