// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibliography

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language)
// form. Field names follow the CSL-YAML schema read by Pandoc.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	Editor         []CSLName `yaml:"editor,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	PublisherPlace string    `yaml:"publisher-place,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Edition        string    `yaml:"edition,omitempty"`
	Note           string    `yaml:"note,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family              string `yaml:"family,omitempty"`
	Given               string `yaml:"given,omitempty"`
	NonDroppingParticle string `yaml:"non-dropping-particle,omitempty"`
	Suffix              string `yaml:"suffix,omitempty"`
	Literal             string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

var cslTypes = map[string]string{
	"article":       "article-journal",
	"book":          "book",
	"booklet":       "pamphlet",
	"inbook":        "chapter",
	"incollection":  "chapter",
	"inproceedings": "paper-conference",
	"manual":        "report",
	"mastersthesis": "thesis",
	"misc":          "document",
	"phdthesis":     "thesis",
	"proceedings":   "book",
	"techreport":    "report",
	"unpublished":   "manuscript",
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ToCSL writes bib as a CSL-YAML list to w.
func ToCSL(bib *types.Bibliography, w io.Writer) error {
	items := make([]CSLItem, len(bib.Entries))
	for i, e := range bib.Entries {
		items[i] = ToCSLItem(e)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts one entry. Protection braces are dropped and page
// ranges use a single hyphen.
func ToCSLItem(e types.Entry) CSLItem {
	item := CSLItem{
		ID:             strings.TrimSpace(e.Key),
		Type:           cslTypes[e.Type],
		Title:          plain(e.Field("title")),
		ContainerTitle: plain(firstOf(e, "journal", "booktitle", "series")),
		Publisher:      plain(firstOf(e, "publisher", "school", "institution", "organization")),
		PublisherPlace: plain(e.Field("address")),
		Volume:         e.Field("volume"),
		Issue:          e.Field("number"),
		Page:           strings.ReplaceAll(e.Field("pages"), "--", "-"),
		Edition:        plain(e.Field("edition")),
		Note:           plain(e.Field("note")),
		Issued:         issued(e.Field("year"), e.Field("month")),
	}
	if item.Type == "" {
		item.Type = "document"
	}

	item.Author = cslNames(e, "author")
	item.Editor = cslNames(e, "editor")
	return item
}

func cslNames(e types.Entry, field string) []CSLName {
	f, ok := e.Lookup(field)
	if !ok {
		return nil
	}
	authors, _ := f.Value.(types.AuthorList)

	var out []CSLName
	for _, a := range authors {
		out = append(out, toCSLName(a))
	}
	return out
}

// toCSLName moves leading lowercase words of the von Last part into the
// particle. A name with neither First nor particle, or one wrapped in
// braces, is literal.
func toCSLName(a types.AuthorName) CSLName {
	if strings.HasPrefix(a.VonLast, "{") && strings.HasSuffix(a.VonLast, "}") && a.First == "" {
		return CSLName{Literal: plain(a.VonLast)}
	}

	words := strings.Fields(a.VonLast)
	i := 0
	for i < len(words)-1 {
		r, _ := utf8.DecodeRuneInString(words[i])
		if !unicode.IsLower(r) {
			break
		}
		i++
	}
	name := CSLName{
		Family:              plain(strings.Join(words[i:], " ")),
		Given:               plain(a.First),
		NonDroppingParticle: strings.Join(words[:i], " "),
		Suffix:              plain(a.Jr),
	}
	if name.Given == "" && name.NonDroppingParticle == "" && name.Suffix == "" {
		return CSLName{Literal: name.Family}
	}
	return name
}

func issued(year, month string) *CSLDate {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return nil
	}
	parts := []int{y}
	if m := parseMonth(month); m > 0 {
		parts = append(parts, m)
	}
	return &CSLDate{DateParts: [][]int{parts}}
}

func parseMonth(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n
	}
	if len(s) >= 3 {
		return months[s[:3]]
	}
	return 0
}

func firstOf(e types.Entry, names ...string) string {
	for _, n := range names {
		if v := e.Field(n); v != "" {
			return v
		}
	}
	return ""
}

// plain drops protection braces.
func plain(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}
