// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite finds citation keys in LaTeX and Markdown manuscripts and
// checks them against a parsed bibliography.
package cite

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// latexPattern matches \cite{a,b}, \citep[p.~3]{a}, \citet*{a}, \nocite{a}
// and the other \cite variants, with up to two optional arguments.
var latexPattern = regexp.MustCompile(`\\(?:no)?cite[a-zA-Z]*\*?(?:\[[^\]]*\]){0,2}\{([^}]*)\}`)

// pandocPattern matches Pandoc citations: [@a; @b, p. 4] and in-text @a.
// The key must follow the start of text, whitespace, '[', ';' or '-'.
var pandocPattern = regexp.MustCompile(`(?:^|[\s\[;-])@([A-Za-z0-9_][A-Za-z0-9_:.#$%&+?<>~/-]*)`)

// Keys returns the citation keys in text in order of first use.
func Keys(text string) []string {
	type hit struct {
		pos int
		key string
	}
	var hits []hit

	for _, m := range latexPattern.FindAllStringSubmatchIndex(text, -1) {
		inner := text[m[2]:m[3]]
		offset := m[2]
		for _, part := range strings.Split(inner, ",") {
			key := strings.TrimSpace(part)
			if key != "" && key != "*" {
				hits = append(hits, hit{pos: offset, key: key})
			}
			offset += len(part) + 1
		}
	}
	for _, m := range pandocPattern.FindAllStringSubmatchIndex(text, -1) {
		key := strings.TrimRight(text[m[2]:m[3]], ".:;,?")
		if key != "" {
			hits = append(hits, hit{pos: m[2], key: key})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	var keys []string
	for _, h := range hits {
		if !seen[h.key] {
			seen[h.key] = true
			keys = append(keys, h.key)
		}
	}
	return keys
}

// Missing returns the keys cited in text that bib has no entry for,
// sorted.
func Missing(text string, bib *types.Bibliography) []string {
	return MissingKeys(Keys(text), bib)
}

// MissingKeys returns the keys bib has no entry for, sorted.
func MissingKeys(keys []string, bib *types.Bibliography) []string {
	known := make(map[string]bool, len(bib.Entries))
	for _, e := range bib.Entries {
		known[strings.TrimSpace(e.Key)] = true
	}

	var missing []string
	for _, key := range keys {
		if !known[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// KeysInFiles reads each manuscript and returns the keys cited across all
// of them in order of first use.
func KeysInFiles(paths []string) ([]string, error) {
	var b strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return Keys(b.String()), nil
}

// Subset returns a bibliography with only the entries whose keys are
// listed, in bibliography order. Diagnostics are not carried over.
func Subset(bib *types.Bibliography, keys []string) *types.Bibliography {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := &types.Bibliography{Options: bib.Options}
	for _, e := range bib.Entries {
		if want[strings.TrimSpace(e.Key)] {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}
