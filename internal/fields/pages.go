// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fields

import (
	"regexp"
	"strings"

	"github.com/pdiddy/bibmagic/pkg/types"
)

var hyphenRun = regexp.MustCompile(`-{1,2}`)

// ParsePages normalizes range dashes: "--" when PagesDoubleHyphened is
// set, a single "-" otherwise.
func ParsePages(raw string, opts types.ParserOptions) (types.FieldValue, error) {
	if opts.PagesDoubleHyphened {
		return types.PageRange(hyphenRun.ReplaceAllString(raw, "--")), nil
	}
	return types.PageRange(strings.ReplaceAll(raw, "--", "-")), nil
}
