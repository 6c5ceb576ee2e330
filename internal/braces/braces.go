// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package braces pairs '{' and '}' characters in BibTeX text.
package braces

import (
	"sort"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// MaxDepth bounds brace nesting. Deeper input is rejected as unbalanced.
const MaxDepth = 4096

// Pair is one matched brace pair, as byte offsets.
type Pair struct {
	Open  int
	Close int
}

// Match scans s left to right and returns a map from each '{' offset to
// the offset of its matching '}'. With stopOnClosing set, it returns as
// soon as the first top-level group closes, so the caller gets the extent
// of one "{...}" value without looking at the rest of s.
//
// An unmatched '}' fails with its own offset; an unmatched '{' left open
// at the end of s fails with the offset of the innermost one.
func Match(s string, stopOnClosing bool) (map[int]int, error) {
	pairs := make(map[int]int)
	var stack []int

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if len(stack) >= MaxDepth {
				return nil, &types.UnbalancedBracesError{Position: i, Reason: "nesting too deep"}
			}
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				return nil, &types.UnbalancedBracesError{Position: i, Closer: true}
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pairs[open] = i

			if stopOnClosing && len(stack) == 0 {
				return pairs, nil
			}
		}
	}

	if len(stack) > 0 {
		return nil, &types.UnbalancedBracesError{Position: stack[len(stack)-1]}
	}
	return pairs, nil
}

// TopLevel returns the pairs that are not nested inside another pair,
// ordered by opening offset.
func TopLevel(pairs map[int]int) []Pair {
	opens := make([]int, 0, len(pairs))
	for open := range pairs {
		opens = append(opens, open)
	}
	sort.Ints(opens)

	var out []Pair
	end := -1
	for _, open := range opens {
		if open < end {
			continue
		}
		out = append(out, Pair{Open: open, Close: pairs[open]})
		end = pairs[open]
	}
	return out
}

// Depths returns the brace depth before each byte of s. Stray closers are
// clamped at zero so a single bad '}' does not shift the rest of the text.
func Depths(s string) []int {
	depths := make([]int, len(s))
	depth := 0
	for i := 0; i < len(s); i++ {
		depths[i] = depth
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depths
}
