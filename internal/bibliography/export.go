// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// Document is the structured export of a bibliography.
type Document struct {
	Bibliography []ExportEntry `json:"bibliography" yaml:"bibliography"`
}

// ExportEntry is one entry in a Document.
type ExportEntry struct {
	Type   string        `json:"type" yaml:"type"`
	Key    string        `json:"key" yaml:"key"`
	Fields []ExportField `json:"fields" yaml:"fields"`
}

// ExportField holds a field's display value. Value is a string, or an
// []ExportAuthor for name-list fields.
type ExportField struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// ExportAuthor is one name of an author or editor list.
type ExportAuthor struct {
	First string `json:"first" yaml:"first"`
	Jr    string `json:"jr" yaml:"jr"`
	Last  string `json:"last" yaml:"last"`
}

// Export builds the structured form of bib. Empty lists are non-nil so
// they encode as [] rather than null.
func Export(bib *types.Bibliography) Document {
	doc := Document{Bibliography: make([]ExportEntry, 0, len(bib.Entries))}
	for _, e := range bib.Entries {
		out := ExportEntry{
			Type:   e.Type,
			Key:    e.Key,
			Fields: make([]ExportField, 0, len(e.Fields)),
		}
		for _, f := range e.Fields {
			out.Fields = append(out.Fields, ExportField{Name: f.Name, Value: exportValue(f.Value)})
		}
		doc.Bibliography = append(doc.Bibliography, out)
	}
	return doc
}

func exportValue(v types.FieldValue) any {
	authors, ok := v.(types.AuthorList)
	if !ok {
		return v.String()
	}
	out := make([]ExportAuthor, len(authors))
	for i, a := range authors {
		out[i] = ExportAuthor{First: a.First, Jr: a.Jr, Last: a.VonLast}
	}
	return out
}

// ToJSON encodes bib as indented JSON.
func ToJSON(bib *types.Bibliography) ([]byte, error) {
	data, err := json.MarshalIndent(Export(bib), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML encodes bib as YAML.
func ToYAML(bib *types.Bibliography) ([]byte, error) {
	data, err := yaml.Marshal(Export(bib))
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return data, nil
}
