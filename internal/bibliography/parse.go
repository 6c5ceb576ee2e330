// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibliography parses whole BibTeX files and serializes the result
// back to BibTeX, JSON, YAML, or CSL-YAML.
//
// Parsing never stops at a bad entry: each entry block is parsed on its
// own, and failures are recorded as diagnostics next to the entries that
// did parse.
package bibliography

import (
	"strings"

	"github.com/pdiddy/bibmagic/internal/entry"
	"github.com/pdiddy/bibmagic/pkg/types"
)

// skippedTypes are block types that carry no bibliographic entry.
var skippedTypes = map[string]bool{
	"comment":  true,
	"preamble": true,
	"string":   true,
}

// Chunk is one entry block of a source file, starting after its '@'.
type Chunk struct {
	Index  int
	Offset int
	Text   string
}

// Parser parses bibliography files with fixed options.
type Parser struct {
	entries *entry.Parser
}

// NewParser wraps an entry parser. A nil entry parser selects the standard
// field and type sets with opts.
func NewParser(opts types.ParserOptions, entries *entry.Parser) *Parser {
	if entries == nil {
		entries = entry.NewParser(opts, nil, nil)
	}
	return &Parser{entries: entries}
}

// Options returns the options entries are parsed with.
func (p *Parser) Options() types.ParserOptions { return p.entries.Options() }

// Parse parses text with the standard field and entry-type sets.
func Parse(text string, opts types.ParserOptions) *types.Bibliography {
	return NewParser(opts, nil).Parse(text)
}

// Parse splits text into entry blocks and parses each one. It always
// returns a Bibliography; problems are reported in its Diagnostics.
func (p *Parser) Parse(text string) *types.Bibliography {
	bib := &types.Bibliography{Options: p.entries.Options()}

	for _, c := range Split(text) {
		e, warnings, err := p.entries.Parse(c.Text)
		if err != nil {
			bib.Diagnostics = append(bib.Diagnostics, types.Diagnostic{
				Severity: types.SeverityError,
				Index:    c.Index,
				Key:      strings.TrimSpace(e.Key),
				Err:      err,
			})
			continue
		}
		for _, w := range warnings {
			bib.Diagnostics = append(bib.Diagnostics, types.Diagnostic{
				Severity: types.SeverityWarning,
				Index:    c.Index,
				Key:      strings.TrimSpace(e.Key),
				Err:      w,
			})
		}
		bib.Entries = append(bib.Entries, e)
	}
	return bib
}

// Split returns the entry blocks of text in order. An '@' starts a new
// block when it is outside braces, or when it begins a line and is
// followed by an entry header such as "@book{"; the second rule lets
// parsing resume after a block whose braces never close.
//
// Outside braces a '%' comments out the rest of its line, including any
// '@' on it. Text before the first '@' is dropped, as are blocks that
// start with '%' and @comment, @preamble, and @string blocks. Any other
// '@' outside braces splits, so a bare e-mail address between entries
// starts a block that will fail to parse.
func Split(text string) []Chunk {
	var starts []int
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '%':
			if depth == 0 {
				if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
					i += nl
				} else {
					i = len(text)
				}
			}
		case '@':
			if depth == 0 || (atLineStart(text, i) && headerAt(text, i+1)) {
				starts = append(starts, i)
				depth = 0
			}
		}
	}

	var chunks []Chunk
	for n, start := range starts {
		end := len(text)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		body := text[start+1 : end]
		if isSkipped(body) {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Offset: start + 1, Text: body})
	}
	return chunks
}

func isSkipped(body string) bool {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || trimmed[0] == '%' {
		return true
	}
	name := trimmed
	if i := strings.IndexAny(name, "{("); i >= 0 {
		name = name[:i]
	}
	return skippedTypes[strings.ToLower(strings.TrimSpace(name))]
}

func atLineStart(text string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch text[j] {
		case '\n':
			return true
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}

// headerAt reports whether text[i:] reads as "name{" or "name(".
func headerAt(text string, i int) bool {
	j := i
	for j < len(text) && isLetter(text[j]) {
		j++
	}
	if j == i {
		return false
	}
	for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
		j++
	}
	return j < len(text) && (text[j] == '{' || text[j] == '(')
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}
