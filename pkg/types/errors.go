// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for each parse failure kind. The typed errors below
// unwrap to these, so callers can test with errors.Is.
var (
	ErrUnbalancedBraces     = errors.New("unbalanced braces")
	ErrUnsupportedEntryType = errors.New("unsupported entry type")
	ErrUnsupportedField     = errors.New("unsupported field")
	ErrMalformedAuthor      = errors.New("malformed author")
	ErrMalformedEntry       = errors.New("malformed entry")
)

// UnbalancedBracesError reports a brace that has no partner. Position is a
// byte offset into the text that was being matched.
type UnbalancedBracesError struct {
	Position int

	// Closer is true for an unmatched '}' and false for an unmatched '{'.
	Closer bool

	// Reason overrides the default message (e.g. nesting limit exceeded).
	Reason string
}

func (e *UnbalancedBracesError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("unbalanced braces at %d: %s", e.Position, e.Reason)
	case e.Closer:
		return fmt.Sprintf("unbalanced braces: no matching opening brace for '}' at %d", e.Position)
	default:
		return fmt.Sprintf("unbalanced braces: no matching closing brace for '{' at %d", e.Position)
	}
}

func (e *UnbalancedBracesError) Unwrap() error { return ErrUnbalancedBraces }

// UnsupportedEntryTypeError names an entry type missing from the registry.
type UnsupportedEntryTypeError struct {
	Name string
}

func (e *UnsupportedEntryTypeError) Error() string {
	return fmt.Sprintf("unsupported entry type %q", e.Name)
}

func (e *UnsupportedEntryTypeError) Unwrap() error { return ErrUnsupportedEntryType }

// UnsupportedFieldError names a field outside the recognized-field registry.
type UnsupportedFieldError struct {
	Name string
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("unsupported field %q", e.Name)
}

func (e *UnsupportedFieldError) Unwrap() error { return ErrUnsupportedField }

// MalformedAuthorError carries the raw name substring that could not be
// decomposed.
type MalformedAuthorError struct {
	Raw string
}

func (e *MalformedAuthorError) Error() string {
	return fmt.Sprintf("malformed author name %q", e.Raw)
}

func (e *MalformedAuthorError) Unwrap() error { return ErrMalformedAuthor }

// MalformedEntryError describes a structural problem in an entry block.
type MalformedEntryError struct {
	Reason string
}

func (e *MalformedEntryError) Error() string {
	return "malformed entry: " + e.Reason
}

func (e *MalformedEntryError) Unwrap() error { return ErrMalformedEntry }
