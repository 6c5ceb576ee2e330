// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Severity classifies a Diagnostic.
type Severity string

const (
	// SeverityWarning marks data that was dropped while the entry itself
	// parsed (e.g. an ignored unsupported field).
	SeverityWarning Severity = "warning"

	// SeverityError marks an entry that was not added to the bibliography.
	SeverityError Severity = "error"
)

// Diagnostic records a problem with one entry of a parsed file.
type Diagnostic struct {
	Severity Severity

	// Index is the zero-based position of the entry block in the source.
	Index int

	// Key is the citation key when it could be recovered.
	Key string

	// Source names the file the entry came from, when known.
	Source string

	Err error
}

func (d Diagnostic) Error() string {
	where := fmt.Sprintf("entry %d", d.Index)
	if d.Source != "" {
		where = d.Source + ": " + where
	}
	if d.Key != "" {
		where += " (" + d.Key + ")"
	}
	return fmt.Sprintf("%s: %s: %v", d.Severity, where, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }
