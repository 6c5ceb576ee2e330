// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fields turns raw BibTeX field values into typed values.
// A Factory dispatches each recognized field name to a Parser; names
// without a dedicated parser are kept as plain text.
package fields

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/bibmagic/internal/latex"
	"github.com/pdiddy/bibmagic/pkg/types"
)

// Recognized lists the field names accepted by NewFactory.
var Recognized = []string{
	"address", "annote", "author", "booktitle", "chapter", "crossref",
	"edition", "editor", "file", "howpublished", "institution", "journal",
	"key", "month", "note", "number", "organization", "pages", "publisher",
	"school", "series", "title", "type", "volume", "year",
}

// Parser converts the text between a field's braces into a value.
type Parser func(raw string, opts types.ParserOptions) (types.FieldValue, error)

// Factory maps lowercase field names to parsers. It is populated at
// construction and read-only afterwards, so one Factory can serve any
// number of concurrent parses.
type Factory struct {
	recognized map[string]bool
	parsers    map[string]Parser
}

// NewFactory returns a Factory for the standard field set. conv is used by
// the author and title parsers; nil selects latex.Default().
func NewFactory(conv *latex.Converter) *Factory {
	if conv == nil {
		conv = latex.Default()
	}
	f := &Factory{
		recognized: make(map[string]bool, len(Recognized)),
		parsers:    make(map[string]Parser),
	}
	for _, name := range Recognized {
		f.recognized[name] = true
	}

	authors := AuthorParser(conv)
	title := TitleParser(conv)
	f.Register("author", authors)
	f.Register("editor", authors)
	f.Register("title", title)
	f.Register("booktitle", title)
	f.Register("pages", ParsePages)
	return f
}

// Register installs p for name and adds name to the recognized set.
// It must not be called once the Factory is in use.
func (f *Factory) Register(name string, p Parser) {
	name = strings.ToLower(name)
	f.recognized[name] = true
	f.parsers[name] = p
}

// Recognizes reports whether name (in any case) is a known field.
func (f *Factory) Recognizes(name string) bool {
	return f.recognized[strings.ToLower(name)]
}

// Names returns the recognized field names, sorted.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.recognized))
	for name := range f.recognized {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create parses one field. Unknown names fail with
// *types.UnsupportedFieldError; parser failures are wrapped with the field
// name.
func (f *Factory) Create(name, raw string, opts types.ParserOptions) (types.Field, error) {
	name = strings.ToLower(name)
	if !f.recognized[name] {
		return types.Field{}, &types.UnsupportedFieldError{Name: name}
	}

	parse, ok := f.parsers[name]
	if !ok {
		parse = ParsePlain
	}
	value, err := parse(raw, opts)
	if err != nil {
		return types.Field{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	return types.Field{Name: name, Value: value}, nil
}

// ParsePlain keeps raw unchanged.
func ParsePlain(raw string, _ types.ParserOptions) (types.FieldValue, error) {
	return types.PlainText(raw), nil
}
