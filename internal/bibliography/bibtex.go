// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/bibmagic/internal/latex"
	"github.com/pdiddy/bibmagic/pkg/types"
)

// FormatEntry writes one entry as
//
//	@type{key,
//		name = {value},
//	}
func FormatEntry(e types.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "\t%s = {%s},\n", f.Name, f.Value.BibTeX())
	}
	b.WriteString("}")
	return b.String()
}

// ToBibTeX serializes every entry, separated by blank lines. The whole
// text then goes through one diacritic pass: to Unicode when the
// bibliography was parsed with LatexToUnicode, to LaTeX macros otherwise.
func ToBibTeX(bib *types.Bibliography) string {
	if len(bib.Entries) == 0 {
		return ""
	}
	parts := make([]string, len(bib.Entries))
	for i, e := range bib.Entries {
		parts[i] = FormatEntry(e)
	}
	out := strings.Join(parts, "\n\n") + "\n"

	conv := latex.Default()
	if bib.Options.LatexToUnicode {
		return conv.ToUnicode(out)
	}
	return conv.ToLatex(out)
}

// WriteBibTeX writes ToBibTeX(bib) to w.
func WriteBibTeX(w io.Writer, bib *types.Bibliography) error {
	if _, err := io.WriteString(w, ToBibTeX(bib)); err != nil {
		return fmt.Errorf("writing bibtex: %w", err)
	}
	return nil
}
