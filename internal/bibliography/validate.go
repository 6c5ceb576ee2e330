// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"fmt"
	"strings"

	"github.com/pdiddy/bibmagic/internal/entry"
	"github.com/pdiddy/bibmagic/pkg/types"
)

// MissingFieldsError lists required fields an entry lacks.
type MissingFieldsError struct {
	Type   string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s is missing required fields: %s", e.Type, strings.Join(e.Fields, ", "))
}

// DuplicateKeyError reports a citation key used by more than one entry.
type DuplicateKeyError struct {
	Key        string
	FirstIndex int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q (first used by entry %d)", e.Key, e.FirstIndex)
}

// Validate checks parsed entries against the registry: every required
// field must be present and citation keys must be unique. Missing fields
// are warnings; duplicate keys are errors. Diagnostic indexes refer to
// bib.Entries.
func Validate(bib *types.Bibliography, registry *entry.TypeRegistry) []types.Diagnostic {
	if registry == nil {
		registry = entry.DefaultTypes()
	}

	var out []types.Diagnostic
	seen := make(map[string]int)
	for i, e := range bib.Entries {
		key := strings.TrimSpace(e.Key)

		missing, err := registry.Missing(e)
		switch {
		case err != nil:
			out = append(out, types.Diagnostic{Severity: types.SeverityError, Index: i, Key: key, Err: err})
		case len(missing) > 0:
			out = append(out, types.Diagnostic{
				Severity: types.SeverityWarning,
				Index:    i,
				Key:      key,
				Err:      &MissingFieldsError{Type: e.Type, Fields: missing},
			})
		}

		if first, dup := seen[key]; dup {
			out = append(out, types.Diagnostic{
				Severity: types.SeverityError,
				Index:    i,
				Key:      key,
				Err:      &DuplicateKeyError{Key: key, FirstIndex: first},
			})
			continue
		}
		seen[key] = i
	}
	return out
}
