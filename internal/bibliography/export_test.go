// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmagic/pkg/types"
)

func TestToJSONZeroEntries(t *testing.T) {
	data, err := ToJSON(&types.Bibliography{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bibliography": []}`, string(data))
}

func TestToJSONShape(t *testing.T) {
	bib := Parse(`@article{vl,
	author = {von Last, Jr, First and Tom Waits},
	title = {simple {TITLE}},
	pages = {3-4},
}`, types.DefaultParserOptions())
	require.Len(t, bib.Entries, 1)

	data, err := ToJSON(bib)
	require.NoError(t, err)

	want := `{
	"bibliography": [
		{
			"type": "article",
			"key": "vl",
			"fields": [
				{"name": "author", "value": [
					{"first": "First", "jr": "Jr", "last": "von Last"},
					{"first": "Tom", "jr": "", "last": "Waits"}
				]},
				{"name": "title", "value": "Simple TITLE"},
				{"name": "pages", "value": "3--4"}
			]
		}
	]
}`
	assert.JSONEq(t, want, string(data))
}

func TestToJSONEntryWithoutFields(t *testing.T) {
	bib := Parse("@misc{bare}", types.DefaultParserOptions())
	data, err := ToJSON(bib)
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc["bibliography"], 1)
	assert.Equal(t, []any{}, doc["bibliography"][0]["fields"])
}

func TestToYAML(t *testing.T) {
	bib := Parse(twoEntries, types.DefaultParserOptions())
	data, err := ToYAML(bib)
	require.NoError(t, err)

	var doc struct {
		Bibliography []struct {
			Type   string `yaml:"type"`
			Key    string `yaml:"key"`
			Fields []struct {
				Name  string `yaml:"name"`
				Value any    `yaml:"value"`
			} `yaml:"fields"`
		} `yaml:"bibliography"`
	}
	require.NoError(t, yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc))
	require.Len(t, doc.Bibliography, 2)
	assert.Equal(t, "knuth1984", doc.Bibliography[1].Key)
	assert.Equal(t, "author", doc.Bibliography[0].Fields[0].Name)

	authors, ok := doc.Bibliography[0].Fields[0].Value.([]any)
	require.True(t, ok)
	assert.Len(t, authors, 2)

	empty, err := ToYAML(&types.Bibliography{})
	require.NoError(t, err)
	assert.Equal(t, "bibliography: []\n", string(empty))
}
