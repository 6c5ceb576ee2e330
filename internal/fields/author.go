// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/bibmagic/internal/braces"
	"github.com/pdiddy/bibmagic/internal/latex"
	"github.com/pdiddy/bibmagic/pkg/types"
)

const nameSeparator = " and "

// AuthorParser returns a Parser for name-list fields (author, editor).
// A nil conv uses latex.Default().
func AuthorParser(conv *latex.Converter) Parser {
	if conv == nil {
		conv = latex.Default()
	}
	return func(raw string, opts types.ParserOptions) (types.FieldValue, error) {
		if opts.LatexToUnicode {
			raw = conv.ToUnicode(raw)
		}
		return ParseNames(raw)
	}
}

// ParseNames splits a name list on " and " and decomposes each name into
// the von Last, Jr, First triplet. Separators and commas inside braces do
// not split, so "{Barnes and Noble}" is a single name.
//
// A name with commas reads "von Last, First" or "von Last, Jr, First".
// Without commas it reads "First von Last": the first token that starts
// with a lowercase letter opens the von Last part, and when there is none
// the last token alone is the Last part.
func ParseNames(raw string) (types.AuthorList, error) {
	var out types.AuthorList
	for _, part := range splitTopLevel(raw, nameSeparator) {
		name, err := parseName(part)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func parseName(raw string) (types.AuthorName, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return types.AuthorName{}, &types.MalformedAuthorError{Raw: raw}
	}

	if parts := splitTopLevel(s, ","); len(parts) > 1 {
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		name := types.AuthorName{
			VonLast: parts[0],
			First:   parts[len(parts)-1],
		}
		if len(parts) > 2 {
			name.Jr = parts[1]
		}
		if name.VonLast == "" {
			return types.AuthorName{}, &types.MalformedAuthorError{Raw: raw}
		}
		return name, nil
	}

	tokens := fieldsTopLevel(s)
	for i, tok := range tokens {
		if isVonToken(tok) {
			return types.AuthorName{
				First:   strings.Join(tokens[:i], " "),
				VonLast: strings.Join(tokens[i:], " "),
			}, nil
		}
	}
	last := len(tokens) - 1
	return types.AuthorName{
		First:   strings.Join(tokens[:last], " "),
		VonLast: tokens[last],
	}, nil
}

// isVonToken reports whether tok starts with a lowercase letter. Braced
// tokens are always part of a name proper.
func isVonToken(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return r != '{' && unicode.IsLower(r)
}

// splitTopLevel splits s around every sep that lies outside braces.
func splitTopLevel(s, sep string) []string {
	depths := braces.Depths(s)
	var parts []string
	start := 0
	for i := 0; i+len(sep) <= len(s); {
		if depths[i] == 0 && s[i:i+len(sep)] == sep {
			parts = append(parts, s[start:i])
			i += len(sep)
			start = i
			continue
		}
		i++
	}
	return append(parts, s[start:])
}

// fieldsTopLevel splits s on runs of whitespace outside braces.
func fieldsTopLevel(s string) []string {
	depths := braces.Depths(s)
	var tokens []string
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) && depths[i] == 0 {
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
