// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entry

import (
	"sort"
	"strings"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// TypeSpec describes one entry type. A Required or Optional item may list
// alternatives separated by "|", any one of which satisfies it.
type TypeSpec struct {
	Name     string
	Required []string
	Optional []string
}

// TypeRegistry maps lowercase entry type names to their field lists.
type TypeRegistry struct {
	specs map[string]TypeSpec
}

// standardTypes follows the field lists of the classic BibTeX styles.
var standardTypes = []TypeSpec{
	{
		Name:     "article",
		Required: []string{"author", "title", "journal", "year"},
		Optional: []string{"volume", "number", "pages", "month", "note", "key"},
	},
	{
		Name:     "book",
		Required: []string{"author|editor", "title", "publisher", "year"},
		Optional: []string{"volume|number", "series", "address", "edition", "month", "note", "key"},
	},
	{
		Name:     "booklet",
		Required: []string{"title"},
		Optional: []string{"author", "howpublished", "address", "month", "year", "note", "key"},
	},
	{
		Name:     "inbook",
		Required: []string{"author|editor", "title", "chapter|pages", "publisher", "year"},
		Optional: []string{"volume|number", "series", "type", "address", "edition", "month", "note", "key"},
	},
	{
		Name:     "incollection",
		Required: []string{"author", "title", "booktitle", "publisher", "year"},
		Optional: []string{"editor", "volume|number", "series", "type", "chapter", "pages", "address", "edition", "month", "note", "key"},
	},
	{
		Name:     "inproceedings",
		Required: []string{"author", "title", "booktitle", "year"},
		Optional: []string{"editor", "volume|number", "series", "pages", "address", "month", "organization", "publisher", "note", "key"},
	},
	{
		Name:     "manual",
		Required: []string{"title"},
		Optional: []string{"author", "organization", "address", "edition", "month", "year", "note", "key"},
	},
	{
		Name:     "mastersthesis",
		Required: []string{"author", "title", "school", "year"},
		Optional: []string{"type", "address", "month", "note", "key"},
	},
	{
		Name:     "misc",
		Optional: []string{"author", "title", "howpublished", "month", "year", "note", "key"},
	},
	{
		Name:     "phdthesis",
		Required: []string{"author", "title", "school", "year"},
		Optional: []string{"type", "address", "month", "note", "key"},
	},
	{
		Name:     "proceedings",
		Required: []string{"title", "year"},
		Optional: []string{"editor", "volume|number", "series", "address", "month", "organization", "publisher", "note", "key"},
	},
	{
		Name:     "techreport",
		Required: []string{"author", "title", "institution", "year"},
		Optional: []string{"type", "number", "address", "month", "note", "key"},
	},
	{
		Name:     "unpublished",
		Required: []string{"author", "title", "note"},
		Optional: []string{"month", "year", "key"},
	},
}

// DefaultTypes returns a registry holding the standard entry types.
func DefaultTypes() *TypeRegistry {
	r := &TypeRegistry{specs: make(map[string]TypeSpec, len(standardTypes))}
	for _, spec := range standardTypes {
		r.Register(spec)
	}
	return r
}

// Register adds or replaces a type. Names are stored lowercase.
func (r *TypeRegistry) Register(spec TypeSpec) {
	spec.Name = strings.ToLower(spec.Name)
	r.specs[spec.Name] = spec
}

// Lookup returns the spec for name.
func (r *TypeRegistry) Lookup(name string) (TypeSpec, bool) {
	spec, ok := r.specs[strings.ToLower(name)]
	return spec, ok
}

// Names returns the registered type names, sorted.
func (r *TypeRegistry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldsFor returns the required fields of an entry type, followed by the
// optional ones when optional is true.
func (r *TypeRegistry) FieldsFor(name string, optional bool) ([]string, error) {
	spec, ok := r.Lookup(name)
	if !ok {
		return nil, &types.UnsupportedEntryTypeError{Name: name}
	}
	out := append([]string(nil), spec.Required...)
	if optional {
		out = append(out, spec.Optional...)
	}
	return out, nil
}

// Missing returns the required items that e does not satisfy, in registry
// order. Alternatives are reported in their "a|b" form.
func (r *TypeRegistry) Missing(e types.Entry) ([]string, error) {
	spec, ok := r.Lookup(e.Type)
	if !ok {
		return nil, &types.UnsupportedEntryTypeError{Name: e.Type}
	}

	var missing []string
	for _, req := range spec.Required {
		satisfied := false
		for _, alt := range strings.Split(req, "|") {
			if _, ok := e.Lookup(alt); ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, req)
		}
	}
	return missing, nil
}
