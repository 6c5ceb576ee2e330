// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for bibmagic.
// Parsed bibliographies (Bibliography, Entry, Field and the FieldValue
// variants), parser options, diagnostics, error kinds, and the
// configuration structs loaded by the CLI.
package types

import "strings"

// ParserOptions controls field normalization. It is built once per parse
// and never mutated while parsing.
type ParserOptions struct {
	// PagesDoubleHyphened normalizes page ranges to "--" when true and to
	// a single "-" when false.
	PagesDoubleHyphened bool `json:"pages_double_hyphened" yaml:"pages_double_hyphened" mapstructure:"pages_double_hyphened"`

	// LatexToUnicode converts LaTeX diacritic macros to Unicode while
	// parsing author and title fields, and selects the direction of the
	// final diacritic pass when serializing to BibTeX.
	LatexToUnicode bool `json:"latex_to_unicode" yaml:"latex_to_unicode" mapstructure:"latex_to_unicode"`

	// IgnoreUnsupportedFields turns unknown field names into warnings
	// instead of entry failures.
	IgnoreUnsupportedFields bool `json:"ignore_unsupported_fields" yaml:"ignore_unsupported_fields" mapstructure:"ignore_unsupported_fields"`
}

// DefaultParserOptions returns the options with every switch enabled.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		PagesDoubleHyphened:     true,
		LatexToUnicode:          true,
		IgnoreUnsupportedFields: true,
	}
}

// FieldValue is the parsed value of a field. The set of implementations is
// closed: PlainText, ProtectedText, AuthorList and PageRange.
type FieldValue interface {
	// String returns the display value.
	String() string

	// BibTeX returns the value as it is written between the field braces.
	BibTeX() string

	fieldValue()
}

// PlainText is a field value copied through without interpretation.
type PlainText string

func (t PlainText) String() string { return string(t) }
func (t PlainText) BibTeX() string { return string(t) }
func (PlainText) fieldValue()      {}

// ProtectedText is a sentence-cased value with brace-protected spans.
// Text has the protection braces removed; Source keeps them so that
// re-parsing the serialized value yields the same casing.
type ProtectedText struct {
	Text   string
	Source string
}

func (t ProtectedText) String() string { return t.Text }
func (t ProtectedText) BibTeX() string { return t.Source }
func (ProtectedText) fieldValue()      {}

// PageRange is a normalized page range such as "12--19".
type PageRange string

func (p PageRange) String() string { return string(p) }
func (p PageRange) BibTeX() string { return string(p) }
func (PageRange) fieldValue()      {}

// AuthorName is the BibTeX name triplet. An empty Jr means no Jr part.
type AuthorName struct {
	VonLast string `json:"last" yaml:"last"`
	Jr      string `json:"jr" yaml:"jr"`
	First   string `json:"first" yaml:"first"`
}

// String formats the name in the "von Last, Jr, First" form.
func (a AuthorName) String() string {
	switch {
	case a.Jr != "":
		return a.VonLast + ", " + a.Jr + ", " + a.First
	case a.First != "":
		return a.VonLast + ", " + a.First
	default:
		return a.VonLast
	}
}

// AuthorList is an ordered list of names from an author or editor field.
type AuthorList []AuthorName

func (l AuthorList) String() string {
	names := make([]string, len(l))
	for i, a := range l {
		names[i] = a.String()
	}
	return strings.Join(names, " and ")
}

func (l AuthorList) BibTeX() string { return l.String() }
func (AuthorList) fieldValue()      {}

// Field is one parsed "name = {value}" pair. Name is lowercase.
type Field struct {
	Name  string
	Value FieldValue
}

// Entry is a single parsed "@type{key, ...}" record. Fields keep source
// order; duplicated names are preserved.
type Entry struct {
	Type   string
	Key    string
	Fields []Field
}

// Lookup returns the first field with the given lowercase name.
func (e *Entry) Lookup(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Field returns the display value of the first field called name, or "".
func (e *Entry) Field(name string) string {
	f, ok := e.Lookup(name)
	if !ok {
		return ""
	}
	return f.Value.String()
}

// Authors returns the parsed author list, or nil when the entry has none.
func (e *Entry) Authors() AuthorList {
	f, ok := e.Lookup("author")
	if !ok {
		return nil
	}
	authors, _ := f.Value.(AuthorList)
	return authors
}

// Bibliography is the result of parsing a whole file: the entries that
// parsed, the options used, and per-entry diagnostics for everything that
// was skipped or failed.
type Bibliography struct {
	Entries     []Entry
	Options     ParserOptions
	Diagnostics []Diagnostic
}

// Keys returns the citation keys in entry order.
func (b *Bibliography) Keys() []string {
	keys := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Lookup returns the first entry with the given citation key.
func (b *Bibliography) Lookup(key string) (*Entry, bool) {
	for i := range b.Entries {
		if b.Entries[i].Key == key {
			return &b.Entries[i], true
		}
	}
	return nil, false
}

// HasErrors reports whether any entry failed to parse.
func (b *Bibliography) HasErrors() bool {
	return len(b.Errors()) > 0
}

// Errors returns the error-severity diagnostics.
func (b *Bibliography) Errors() []Diagnostic {
	return b.filter(SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (b *Bibliography) Warnings() []Diagnostic {
	return b.filter(SeverityWarning)
}

func (b *Bibliography) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}
