// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package latex converts between LaTeX diacritic macros and Unicode.
//
// The table is generated rather than listed: every accent command is
// combined with every ASCII letter, and the pair is kept when its NFC
// composition is a single precomposed rune. Letters that have no
// decomposition (ł, ø, ß, ...) come from a fixed list of control words.
package latex

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// accents maps accent commands to Unicode combining marks.
var accents = map[string]rune{
	"'":  '\u0301',
	"`":  '\u0300',
	"^":  '\u0302',
	"\"": '\u0308',
	"~":  '\u0303',
	"=":  '\u0304',
	".":  '\u0307',
	"u":  '\u0306',
	"v":  '\u030C',
	"H":  '\u030B',
	"c":  '\u0327',
	"k":  '\u0328',
	"r":  '\u030A',
	"d":  '\u0323',
	"b":  '\u0331',
}

// letters maps control words to the letters they stand for.
var letters = map[string]string{
	"l":  "ł",
	"L":  "Ł",
	"o":  "ø",
	"O":  "Ø",
	"ss": "ß",
	"ae": "æ",
	"AE": "Æ",
	"oe": "œ",
	"OE": "Œ",
	"i":  "ı",
	"j":  "ȷ",
}

// aliases are accepted by ToUnicode but never produced by ToLatex, because
// the same letter already has a canonical accent spelling.
var aliases = map[string]string{
	"aa": "å",
	"AA": "Å",
}

// Entry is one row of the conversion table.
type Entry struct {
	Unicode string
	Macro   string
}

// Converter holds the immutable conversion table. The zero value is not
// usable; call New or Default.
type Converter struct {
	entries  []Entry
	toUni    map[string]string
	fromUni  map[rune]string
	wordOnly map[rune]bool
}

var (
	defaultOnce sync.Once
	defaultConv *Converter
)

// Default returns a shared Converter built on first use.
func Default() *Converter {
	defaultOnce.Do(func() { defaultConv = New() })
	return defaultConv
}

// New builds the conversion table.
func New() *Converter {
	c := &Converter{
		toUni:    make(map[string]string),
		fromUni:  make(map[rune]string),
		wordOnly: make(map[rune]bool),
	}

	cmds := make([]string, 0, len(accents))
	for cmd := range accents {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)

	for _, cmd := range cmds {
		mark := accents[cmd]
		for _, base := range asciiLetters() {
			composed := norm.NFC.String(string(base) + string(mark))
			if utf8.RuneCountInString(composed) != 1 {
				continue
			}
			macro := `\` + cmd + "{" + string(base) + "}"
			c.add(Entry{Unicode: composed, Macro: macro}, accentKey(cmd, string(base)))
		}
	}

	words := make([]string, 0, len(letters))
	for w := range letters {
		words = append(words, w)
	}
	sort.Strings(words)
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(letters[w])
		c.wordOnly[r] = true
		c.add(Entry{Unicode: letters[w], Macro: `\` + w}, w)
	}
	for w, u := range aliases {
		c.toUni[w] = u
	}
	return c
}

func (c *Converter) add(e Entry, key string) {
	r, _ := utf8.DecodeRuneInString(e.Unicode)
	c.entries = append(c.entries, e)
	c.toUni[key] = e.Unicode
	c.fromUni[r] = e.Macro
}

// Entries returns a copy of the conversion table.
func (c *Converter) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ToLatex replaces every Unicode letter in the table with its macro.
// A bare control word such as \l gets a "{}" terminator when a letter
// follows, so the output reads back unchanged.
func (c *Converter) ToLatex(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		macro, ok := c.fromUni[r]
		if !ok {
			b.WriteRune(r)
			continue
		}
		b.WriteString(macro)
		if c.wordOnly[r] {
			next := i + utf8.RuneLen(r)
			if next < len(text) && isASCIILetter(text[next]) {
				b.WriteString("{}")
			}
		}
	}
	return b.String()
}

// ToUnicode replaces every recognized macro with its Unicode letter.
// Both \'{a} and \'a are accepted, letter accents may be separated from
// their argument by spaces (\v s), and \i or \j may stand in for i and j
// (\'{\i}). Unknown macros are copied unchanged. Scanning is left to
// right and replaced text is never scanned again.
func (c *Converter) ToUnicode(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if text[i] != '\\' || i+1 >= len(text) {
			b.WriteByte(text[i])
			i++
			continue
		}
		if u, end, ok := c.macroAt(text, i); ok {
			b.WriteString(u)
			i = end
			continue
		}
		// Copy the unknown control sequence whole so that its tail is not
		// mistaken for a shorter macro.
		end := i + 2
		if isASCIILetter(text[i+1]) {
			end = i + 1 + letterRun(text[i+1:])
		}
		b.WriteString(text[i:end])
		i = end
	}
	return b.String()
}

// macroAt tries to read a macro starting at the backslash at i.
func (c *Converter) macroAt(text string, i int) (string, int, bool) {
	next := text[i+1]

	if !isASCIILetter(next) {
		cmd := string(next)
		if _, ok := accents[cmd]; !ok {
			return "", 0, false
		}
		base, end, ok := accentArg(text, i+2, false)
		if !ok {
			return "", 0, false
		}
		u, ok := c.toUni[accentKey(cmd, base)]
		return u, end, ok
	}

	name := text[i+1 : i+1+letterRun(text[i+1:])]
	end := i + 1 + len(name)

	if _, ok := accents[name]; ok && end < len(text) && (text[end] == '{' || text[end] == ' ') {
		base, argEnd, ok := accentArg(text, end, true)
		if ok {
			if u, ok := c.toUni[accentKey(name, base)]; ok {
				return u, argEnd, true
			}
		}
	}

	u, ok := c.toUni[name]
	if !ok {
		return "", 0, false
	}
	if strings.HasPrefix(text[end:], "{}") {
		end += 2
	}
	return u, end, true
}

// accentArg reads the argument of an accent command starting at j: a
// braced letter, a braced \i or \j, a bare letter, or (for letter
// commands) spaces followed by a bare letter.
func accentArg(text string, j int, allowSpace bool) (string, int, bool) {
	if j >= len(text) {
		return "", 0, false
	}
	if text[j] == '{' {
		rest := text[j+1:]
		switch {
		case len(rest) >= 2 && isASCIILetter(rest[0]) && rest[1] == '}':
			return rest[:1], j + 3, true
		case len(rest) >= 1 && rest[0] == '}':
			return "", 0, false
		case strings.HasPrefix(rest, `\i}`) || strings.HasPrefix(rest, `\j}`):
			return rest[1:2], j + 4, true
		}
		return "", 0, false
	}
	if allowSpace && text[j] == ' ' {
		k := j
		for k < len(text) && text[k] == ' ' {
			k++
		}
		if k < len(text) && isASCIILetter(text[k]) {
			return text[k : k+1], k + 1, true
		}
		return "", 0, false
	}
	if isASCIILetter(text[j]) {
		return text[j : j+1], j + 1, true
	}
	if strings.HasPrefix(text[j:], `\i`) || strings.HasPrefix(text[j:], `\j`) {
		if j+2 == len(text) || !isASCIILetter(text[j+2]) {
			return text[j+1 : j+2], j + 2, true
		}
	}
	return "", 0, false
}

func accentKey(cmd, base string) string {
	return cmd + "{" + base + "}"
}

func asciiLetters() []rune {
	out := make([]rune, 0, 52)
	for r := 'A'; r <= 'Z'; r++ {
		out = append(out, r)
	}
	for r := 'a'; r <= 'z'; r++ {
		out = append(out, r)
	}
	return out
}

func isASCIILetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

func letterRun(s string) int {
	n := 0
	for n < len(s) && isASCIILetter(s[n]) {
		n++
	}
	return n
}
