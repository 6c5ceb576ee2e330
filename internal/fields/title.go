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

// TitleParser returns a Parser for sentence-cased fields (title,
// booktitle). A nil conv uses latex.Default().
func TitleParser(conv *latex.Converter) Parser {
	if conv == nil {
		conv = latex.Default()
	}
	return func(raw string, opts types.ParserOptions) (types.FieldValue, error) {
		if opts.LatexToUnicode {
			raw = conv.ToUnicode(raw)
		}
		return ParseTitle(raw)
	}
}

// ParseTitle lowercases everything outside top-level brace groups, copies
// the groups verbatim, and uppercases the first character. The result's
// Text drops the group braces and its Source keeps them. Control words
// such as \L are never lowercased.
func ParseTitle(raw string) (types.ProtectedText, error) {
	pairs, err := braces.Match(raw, false)
	if err != nil {
		return types.ProtectedText{}, err
	}

	var text, source strings.Builder
	text.Grow(len(raw))
	source.Grow(len(raw))

	cursor := 0
	for _, p := range braces.TopLevel(pairs) {
		plain := lowerOutsideMacros(raw[cursor:p.Open])
		text.WriteString(plain)
		source.WriteString(plain)
		text.WriteString(raw[p.Open+1 : p.Close])
		source.WriteString(raw[p.Open : p.Close+1])
		cursor = p.Close + 1
	}
	plain := lowerOutsideMacros(raw[cursor:])
	text.WriteString(plain)
	source.WriteString(plain)

	return types.ProtectedText{
		Text:   upperFirst(text.String()),
		Source: upperFirst(source.String()),
	}, nil
}

func lowerOutsideMacros(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && isAccent(s[i+1]) {
			b.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if s[i] == '\\' {
			end := i + 1
			for end < len(s) && isLetter(s[end]) {
				end++
			}
			b.WriteString(s[i:end])
			i = end
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(unicode.ToLower(r))
		i += size
	}
	return b.String()
}

// upperFirst uppercases the first character that is not a brace or part
// of an accent command such as \'.
func upperFirst(s string) string {
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '{' || s[i] == '}':
			i++
			continue
		case s[i] == '\\' && i+1 < len(s) && isAccent(s[i+1]):
			i += 2
			continue
		}
		break
	}
	if i == len(s) {
		return s
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	return s[:i] + string(unicode.ToUpper(r)) + s[i+size:]
}

// isAccent reports whether b names a one-character accent command.
func isAccent(b byte) bool {
	return strings.IndexByte("'`^\"~=.", b) >= 0
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}
