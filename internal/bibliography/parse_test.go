// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibmagic/pkg/types"
)

const twoEntries = `% references for chapter 2

@article{smith2019,
	author = {Smith, John and Jane Doe},
	title = {a study of {RNA} folding},
	journal = {Journal of Things},
	year = {2019},
	pages = {1-10},
}

@book{knuth1984,
	author = {Donald E. Knuth},
	title = {the {\TeX}book},
	publisher = {Addison-Wesley},
	year = {1984},
}
`

func TestParseTwoEntries(t *testing.T) {
	bib := Parse(twoEntries, types.DefaultParserOptions())

	require.Len(t, bib.Entries, 2)
	assert.Empty(t, bib.Diagnostics)
	assert.Equal(t, []string{"smith2019", "knuth1984"}, bib.Keys())
	assert.Equal(t, "article", bib.Entries[0].Type)
	assert.Equal(t, "book", bib.Entries[1].Type)

	out := ToBibTeX(bib)
	for _, want := range []string{
		"@article{smith2019,",
		"@book{knuth1984,",
		"\tauthor = {Smith, John and Doe, Jane},",
		"\ttitle = {A study of {RNA} folding},",
		"\tjournal = {Journal of Things},",
		"\tpages = {1--10},",
		"\tpublisher = {Addison-Wesley},",
		"\tyear = {1984},",
	} {
		assert.Contains(t, out, want)
	}
}

func TestParseUnsupportedFieldWarning(t *testing.T) {
	text := "@article{k,\n\ttitle = {t},\n\tabstract = {dropped},\n\tyear = {2020},\n}\n"
	bib := Parse(text, types.DefaultParserOptions())

	require.Len(t, bib.Entries, 1)
	require.Len(t, bib.Diagnostics, 1)
	assert.False(t, bib.HasErrors())

	d := bib.Warnings()[0]
	assert.Equal(t, types.SeverityWarning, d.Severity)
	assert.Equal(t, "k", d.Key)
	assert.True(t, errors.Is(d, types.ErrUnsupportedField))

	assert.NotContains(t, ToBibTeX(bib), "abstract")
}

func TestParseStrictUnsupportedField(t *testing.T) {
	opts := types.DefaultParserOptions()
	opts.IgnoreUnsupportedFields = false

	text := "@misc{a, abstract = {x}}\n@misc{b, note = {y}}\n"
	bib := Parse(text, opts)

	require.Len(t, bib.Entries, 1)
	assert.Equal(t, "b", bib.Entries[0].Key)
	require.Len(t, bib.Errors(), 1)
	assert.Equal(t, "a", bib.Errors()[0].Key)
	assert.True(t, errors.Is(bib.Errors()[0], types.ErrUnsupportedField))
}

func TestParseBadEntryDoesNotAbortSiblings(t *testing.T) {
	text := `@misc{first, note = {ok}}

@article{bad,
	title = {a{b},
	year = {2019}
}

@misc{last, note = {also ok}}
`
	bib := Parse(text, types.DefaultParserOptions())

	assert.Equal(t, []string{"first", "last"}, bib.Keys())
	require.Len(t, bib.Errors(), 1)

	d := bib.Errors()[0]
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, "", d.Key)
	assert.True(t, errors.Is(d, types.ErrUnbalancedBraces))
}

func TestParseCollectsEveryFailure(t *testing.T) {
	text := `@patent{p1, title = {x}}
@misc{m1, author = {Smith and }}
@misc{m2, title = "quoted"}
@misc{ok, note = {fine}}
`
	bib := Parse(text, types.DefaultParserOptions())

	assert.Equal(t, []string{"ok"}, bib.Keys())
	errs := bib.Errors()
	require.Len(t, errs, 3)
	assert.True(t, errors.Is(errs[0], types.ErrUnsupportedEntryType))
	assert.True(t, errors.Is(errs[1], types.ErrMalformedAuthor))
	assert.Equal(t, "m1", errs[1].Key)
	assert.True(t, errors.Is(errs[2], types.ErrMalformedEntry))
}

func TestParseZeroEntries(t *testing.T) {
	for _, text := range []string{"", "% only a comment\n", "just some text"} {
		bib := Parse(text, types.DefaultParserOptions())
		assert.Empty(t, bib.Entries)
		assert.Empty(t, bib.Diagnostics)
		assert.Equal(t, "", ToBibTeX(bib))
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "at sign inside braces",
			text: "@misc{a, note = {mail me at a@b.org}}\n@misc{b}",
			want: []string{"misc{a, note = {mail me at a@b.org}}\n", "misc{b}"},
		},
		{
			name: "leading junk dropped",
			text: "preamble text\n@misc{a}",
			want: []string{"misc{a}"},
		},
		{
			name: "special blocks dropped",
			text: "@comment{ignore @misc{x}}\n@string{foo = {bar}}\n@Preamble{ {x} }\n@misc{a}",
			want: []string{"misc{a}"},
		},
		{
			name: "percent comment line",
			text: "%@misc{commented, note = {x}}\n@misc{a}",
			want: []string{"misc{a}"},
		},
		{
			name: "resync after unbalanced entry",
			text: "@misc{a, note = {open\n@misc{b}",
			want: []string{"misc{a, note = {open\n", "misc{b}"},
		},
		{
			name: "no resync mid-line",
			text: "@misc{a, note = {x @misc{b}}}",
			want: []string{"misc{a, note = {x @misc{b}}}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text)
			got := make([]string, len(chunks))
			for i, c := range chunks {
				got[i] = c.Text
				assert.Equal(t, i, c.Index)
				assert.Equal(t, c.Text, tt.text[c.Offset:c.Offset+len(c.Text)])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	inputs := []string{
		twoEntries,
		"@inproceedings{x, author = {Jean de la Fontaine and von Neumann, Jr, John}, title = {ON {L}ambda CALCULI}, booktitle = {proc. of {ICML}}, year = 2001, pages = {5-7}}",
		`@article{d, author = {G\"{o}del, Kurt and \L{}ukasz Nowak}, title = {\"{U}ber formal unentscheidbare S\"{a}tze}, journal = {Monatsh. f\"{u}r Math.}, year = {1931}}`,
		"@misc{m, note = {50\\% off}, howpublished = {\\url{http://x.org}}}",
	}

	for _, opts := range []types.ParserOptions{
		types.DefaultParserOptions(),
		{PagesDoubleHyphened: false, LatexToUnicode: false, IgnoreUnsupportedFields: true},
	} {
		for _, in := range inputs {
			first := ToBibTeX(Parse(in, opts))
			second := ToBibTeX(Parse(first, opts))
			assert.Equal(t, first, second, "input %q opts %+v", in, opts)
			assert.NotEmpty(t, first)
		}
	}
}

func TestToBibTeXDiacriticDirection(t *testing.T) {
	in := `@misc{k, author = {G\"{o}del, Kurt}, note = {Universit\"{a}t Wien}}`

	uni := ToBibTeX(Parse(in, types.DefaultParserOptions()))
	assert.Contains(t, uni, "author = {Gödel, Kurt}")
	assert.Contains(t, uni, "note = {Universität Wien}")

	opts := types.DefaultParserOptions()
	opts.LatexToUnicode = false
	tex := ToBibTeX(Parse("@misc{k, note = {Universität Wien}}", opts))
	assert.Contains(t, tex, `note = {Universit\"{a}t Wien}`)
}

func TestToBibTeXLayout(t *testing.T) {
	bib := Parse("@misc{a, note = {x}}\n@misc{b, year = {2000}}", types.DefaultParserOptions())
	want := "@misc{a,\n\tnote = {x},\n}\n\n@misc{b,\n\tyear = {2000},\n}\n"
	assert.Equal(t, want, ToBibTeX(bib))

	var sb strings.Builder
	require.NoError(t, WriteBibTeX(&sb, bib))
	assert.Equal(t, want, sb.String())
}
