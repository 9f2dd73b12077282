// Package content normalizes tenant-facing property content coming from the
// database or from the compiled-in fallback tables into one Section shape.
package content

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/colivhub/portal-server-go/internal/model"
)

// Section is one titled block of content in a single language.
type Section struct {
	Key       SectionKey `json:"key"`
	Icon      string     `json:"icon"`
	Title     string     `json:"title"`
	Body      string     `json:"content"`
	SortOrder int        `json:"sortOrder"`
}

// StaticEntry is one row of the fallback tables.
type StaticEntry struct {
	Section SectionKey `yaml:"section"`
	Content string     `yaml:"content"`
}

// FromBackendRow picks lang field by field: an empty secondary-language title
// or body falls back to the primary text of the same row.
func FromBackendRow(row model.PropertyContent, lang model.Language) Section {
	key := SectionKey(row.SectionKey)
	icon := row.Icon
	if icon == "" {
		icon = Meta(key).Icon
	}
	return Section{
		Key:       key,
		Icon:      icon,
		Title:     model.Pick(lang, row.TitleFR, row.TitleEN),
		Body:      model.Pick(lang, row.ContentFR, row.ContentEN),
		SortOrder: row.SortOrder,
	}
}

// FromStaticEntry takes title and icon from the vocabulary; position is the
// entry's index in its table.
func FromStaticEntry(entry StaticEntry, lang model.Language, position int) Section {
	meta := Meta(entry.Section)
	return Section{
		Key:       entry.Section,
		Icon:      meta.Icon,
		Title:     meta.Title(lang),
		Body:      strings.TrimSpace(entry.Content),
		SortOrder: position,
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// PropertyKey derives the fallback table key from a property name or slug:
// "La Villa" and "la-villa" both become "lavilla".
func PropertyKey(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))
	var b strings.Builder
	for _, r := range decomposed {
		// drop combining accents left by NFD
		if r >= 0x0300 && r <= 0x036f {
			continue
		}
		b.WriteRune(r)
	}
	return nonAlnum.ReplaceAllString(b.String(), "")
}
