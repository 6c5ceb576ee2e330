// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibmagic/internal/bibliography"
	"github.com/pdiddy/bibmagic/internal/cite"
	"github.com/pdiddy/bibmagic/internal/entry"
	"github.com/pdiddy/bibmagic/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report parse errors, missing required fields and duplicate keys",
	Long: `Check parses the given .bib files (or standard input) and prints one
line per problem: entries that failed to parse, entries missing fields
their type requires, and duplicated citation keys.

With --tex, the listed manuscripts are scanned for \cite commands and
Pandoc [@key] citations, and keys without an entry are reported.

Check exits non-zero when any error-level problem or missing citation is
found. Warnings alone do not fail the check.`,
	RunE: runCheck,
}

func init() {
	addParserFlags(checkCmd)
	checkCmd.Flags().StringSlice("tex", nil, "manuscripts to scan for citations (.tex or .md)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	texFiles, _ := cmd.Flags().GetStringSlice("tex")

	p := bibliography.NewParser(parserOptions(cmd), nil)
	bib, err := loadInput(cmd.Context(), cmd, p, args)
	if err != nil {
		return err
	}

	diags := append([]types.Diagnostic{}, bib.Diagnostics...)
	diags = append(diags, bibliography.Validate(bib, entry.DefaultTypes())...)

	out := cmd.OutOrStdout()
	errCount := 0
	for _, d := range diags {
		fmt.Fprintln(out, d.Error())
		if d.Severity == types.SeverityError {
			errCount++
		}
	}

	var missing []string
	if len(texFiles) > 0 {
		keys, err := cite.KeysInFiles(texFiles)
		if err != nil {
			return err
		}
		missing = cite.MissingKeys(keys, bib)
		for _, k := range missing {
			fmt.Fprintf(out, "missing citation: %s\n", k)
		}
	}

	fmt.Fprintf(out, "\nentries: %d, errors: %d, warnings: %d, missing citations: %d\n",
		len(bib.Entries), errCount, len(diags)-errCount, len(missing))

	if errCount > 0 || len(missing) > 0 {
		return fmt.Errorf("check failed: %d error(s), %d missing citation(s)", errCount, len(missing))
	}
	return nil
}
