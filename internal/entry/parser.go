// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entry parses a single BibTeX entry block into a types.Entry.
//
// The parser is a linear state machine over an immutable string and a
// cursor. Each step (locateType, locateKey, locateFieldName,
// locateValueSpan) either advances the cursor or fails with a typed error;
// there is no backtracking.
package entry

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/bibmagic/internal/braces"
	"github.com/pdiddy/bibmagic/internal/fields"
	"github.com/pdiddy/bibmagic/pkg/types"
)

// Parser parses entry blocks with a fixed set of options. It holds no
// per-parse state and may be shared between goroutines.
type Parser struct {
	opts    types.ParserOptions
	factory *fields.Factory
	types   *TypeRegistry
}

// NewParser returns a Parser. A nil factory or registry selects the
// standard field and entry-type sets.
func NewParser(opts types.ParserOptions, factory *fields.Factory, registry *TypeRegistry) *Parser {
	if factory == nil {
		factory = fields.NewFactory(nil)
	}
	if registry == nil {
		registry = DefaultTypes()
	}
	return &Parser{opts: opts, factory: factory, types: registry}
}

// Options returns the options the parser was built with.
func (p *Parser) Options() types.ParserOptions { return p.opts }

// Types returns the entry-type registry.
func (p *Parser) Types() *TypeRegistry { return p.types }

// scanner is the cursor over one entry. open and end are the offsets of
// the entry's outer braces.
type scanner struct {
	raw  string
	pos  int
	end  int
	open int
}

// Parse parses one entry. raw starts at the type name (a leading "@" is
// allowed) and runs to the next entry or the end of the file; anything
// after the entry's closing brace is ignored.
//
// Unsupported fields are returned as warnings when IgnoreUnsupportedFields
// is set and fail the entry otherwise. On failure the returned Entry holds
// the type and key if they were read, so callers can report them.
func (p *Parser) Parse(raw string) (types.Entry, []error, error) {
	s := &scanner{raw: raw}

	typ, err := s.locateType()
	if err != nil {
		return types.Entry{}, nil, err
	}
	if _, ok := p.types.Lookup(typ); !ok {
		return types.Entry{Type: typ}, nil, &types.UnsupportedEntryTypeError{Name: typ}
	}
	if err := s.locateBody(); err != nil {
		return types.Entry{Type: typ}, nil, err
	}

	e := types.Entry{Type: typ, Key: s.locateKey()}
	failed := types.Entry{Type: e.Type, Key: e.Key}

	var warnings []error
	for {
		name, ok, err := s.locateFieldName()
		if err != nil {
			return failed, nil, err
		}
		if !ok {
			break
		}
		value, err := s.locateValueSpan(name)
		if err != nil {
			return failed, nil, err
		}

		field, err := p.factory.Create(name, value, p.opts)
		if err != nil {
			if errors.Is(err, types.ErrUnsupportedField) && p.opts.IgnoreUnsupportedFields {
				warnings = append(warnings, err)
				continue
			}
			return failed, nil, err
		}
		e.Fields = append(e.Fields, field)
	}
	return e, warnings, nil
}

// locateType reads the lowercase type name before the first '{'.
func (s *scanner) locateType() (string, error) {
	start := strings.TrimLeftFunc(s.raw, unicode.IsSpace)
	start = strings.TrimPrefix(start, "@")
	offset := len(s.raw) - len(start)

	i := strings.IndexByte(start, '{')
	if i < 0 {
		return "", &types.MalformedEntryError{Reason: "missing '{' after entry type"}
	}
	typ := strings.ToLower(strings.TrimSpace(start[:i]))
	if typ == "" {
		return "", &types.MalformedEntryError{Reason: "missing entry type"}
	}
	if strings.IndexFunc(typ, func(r rune) bool { return !isNameRune(r) }) >= 0 {
		return "", &types.MalformedEntryError{Reason: fmt.Sprintf("invalid entry type %q", typ)}
	}
	s.open = offset + i
	return typ, nil
}

// locateBody finds the brace that closes the entry.
func (s *scanner) locateBody() error {
	pairs, err := braces.Match(s.raw[s.open:], true)
	if err != nil {
		return shift(err, s.open)
	}
	s.end = pairs[0] + s.open
	s.pos = s.open + 1
	return nil
}

// locateKey reads the citation key: everything up to the first ',' or, for
// an entry without fields, up to the closing brace. The key is returned
// as written.
func (s *scanner) locateKey() string {
	body := s.raw[s.pos:s.end]
	i := strings.IndexByte(body, ',')
	if i < 0 {
		s.pos = s.end
		return body
	}
	s.pos += i + 1
	return body[:i]
}

// locateFieldName skips separators and comments and reads the name before
// the next '='. It reports false at the end of the entry.
func (s *scanner) locateFieldName() (string, bool, error) {
	for s.pos < s.end {
		c := s.raw[s.pos]
		switch {
		case c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
			continue
		case c == '%':
			nl := strings.IndexByte(s.raw[s.pos:s.end], '\n')
			if nl < 0 {
				s.pos = s.end
			} else {
				s.pos += nl + 1
			}
			continue
		}
		break
	}
	if s.pos >= s.end {
		return "", false, nil
	}

	eq := strings.IndexByte(s.raw[s.pos:s.end], '=')
	if eq < 0 {
		return "", false, &types.MalformedEntryError{
			Reason: fmt.Sprintf("expected field name and '=' at %d", s.pos),
		}
	}
	name := strings.TrimSpace(s.raw[s.pos : s.pos+eq])
	if name == "" || strings.IndexFunc(name, func(r rune) bool { return !isNameRune(r) }) >= 0 {
		return "", false, &types.MalformedEntryError{
			Reason: fmt.Sprintf("invalid field name %q at %d", name, s.pos),
		}
	}
	s.pos += eq + 1
	return name, true, nil
}

// locateValueSpan reads a "{...}" value or a bare number after '='.
func (s *scanner) locateValueSpan(name string) (string, error) {
	for s.pos < s.end && isSpace(s.raw[s.pos]) {
		s.pos++
	}
	if s.pos >= s.end {
		return "", &types.MalformedEntryError{Reason: fmt.Sprintf("field %s has no value", name)}
	}

	switch c := s.raw[s.pos]; {
	case c == '{':
		pairs, err := braces.Match(s.raw[s.pos:s.end], true)
		if err != nil {
			return "", shift(err, s.pos)
		}
		closeAt := s.pos + pairs[0]
		value := s.raw[s.pos+1 : closeAt]
		s.pos = closeAt + 1
		return value, nil
	case '0' <= c && c <= '9':
		start := s.pos
		for s.pos < s.end && '0' <= s.raw[s.pos] && s.raw[s.pos] <= '9' {
			s.pos++
		}
		return s.raw[start:s.pos], nil
	case c == '"':
		return "", &types.MalformedEntryError{
			Reason: fmt.Sprintf("field %s: quoted values are not supported", name),
		}
	default:
		return "", &types.MalformedEntryError{
			Reason: fmt.Sprintf("field %s: value must be enclosed in braces", name),
		}
	}
}

// shift moves an UnbalancedBracesError position from a substring offset to
// an offset in the whole entry.
func shift(err error, offset int) error {
	var be *types.UnbalancedBracesError
	if errors.As(err, &be) {
		be.Position += offset
	}
	return err
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == ':' || r == '.'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
