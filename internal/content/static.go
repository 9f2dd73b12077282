package content

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/colivhub/portal-server-go/internal/model"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// StaticProvider serves the compiled-in fallback content, keyed by property
// key and language.
type StaticProvider struct {
	tables map[string]map[model.Language][]StaticEntry
}

// NewStaticProvider parses the embedded fallback tables.
func NewStaticProvider() (*StaticProvider, error) {
	return ParseStaticProvider(fallbackYAML)
}

// ParseStaticProvider parses tables shaped as
// propertyKey -> language -> ordered entries. Every section must belong to
// the vocabulary and every language must be supported.
func ParseStaticProvider(data []byte) (*StaticProvider, error) {
	var raw map[string]map[string][]StaticEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fallback content: %w", err)
	}

	tables := make(map[string]map[model.Language][]StaticEntry, len(raw))
	for key, byLang := range raw {
		normalized := PropertyKey(key)
		if normalized != key {
			return nil, fmt.Errorf("fallback content: property key %q is not normalized (want %q)", key, normalized)
		}

		tables[key] = make(map[model.Language][]StaticEntry, len(byLang))
		for code, entries := range byLang {
			lang := model.Language(code)
			if !lang.Valid() {
				return nil, fmt.Errorf("fallback content: %s: unsupported language %q", key, code)
			}
			seen := make(map[SectionKey]bool, len(entries))
			for _, e := range entries {
				if !IsKnownSection(string(e.Section)) {
					return nil, fmt.Errorf("fallback content: %s/%s: unknown section %q", key, code, e.Section)
				}
				if seen[e.Section] {
					return nil, fmt.Errorf("fallback content: %s/%s: duplicate section %q", key, code, e.Section)
				}
				seen[e.Section] = true
			}
			tables[key][lang] = entries
		}
	}

	return &StaticProvider{tables: tables}, nil
}

// Entries returns the raw fallback rows, or nil.
func (p *StaticProvider) Entries(propertyKey string, lang model.Language) []StaticEntry {
	return p.tables[propertyKey][lang]
}

// Sections returns the normalized fallback sections in table order.
func (p *StaticProvider) Sections(propertyKey string, lang model.Language) []Section {
	entries := p.Entries(propertyKey, lang)
	sections := make([]Section, 0, len(entries))
	for i, e := range entries {
		sections = append(sections, FromStaticEntry(e, lang, i))
	}
	return sections
}

func (p *StaticProvider) Has(propertyKey string) bool {
	_, ok := p.tables[propertyKey]
	return ok
}

func (p *StaticProvider) Keys() []string {
	keys := make([]string, 0, len(p.tables))
	for k := range p.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SeedRows zips the primary and secondary tables of propertyKey by section
// into insertable rows. Sections present only in the secondary language use
// that text for both variants.
func (p *StaticProvider) SeedRows(propertyID, propertyKey string) []model.CreatePropertyContentParams {
	primary := p.Entries(propertyKey, model.LanguagePrimary)
	secondary := p.Entries(propertyKey, model.LanguageEN)

	secondaryByKey := make(map[SectionKey]string, len(secondary))
	for _, e := range secondary {
		secondaryByKey[e.Section] = e.Content
	}

	rows := make([]model.CreatePropertyContentParams, 0, len(primary))
	used := make(map[SectionKey]bool, len(primary))
	for _, e := range primary {
		used[e.Section] = true
		rows = append(rows, seedRow(propertyID, e.Section, e.Content, secondaryByKey[e.Section], len(rows)))
	}
	for _, e := range secondary {
		if used[e.Section] {
			continue
		}
		rows = append(rows, seedRow(propertyID, e.Section, e.Content, e.Content, len(rows)))
	}
	return rows
}

func seedRow(propertyID string, key SectionKey, primary, secondary string, order int) model.CreatePropertyContentParams {
	meta := Meta(key)
	return model.CreatePropertyContentParams{
		PropertyID: propertyID,
		SectionKey: string(key),
		Icon:       meta.Icon,
		TitleFR:    meta.TitleFR,
		TitleEN:    meta.TitleEN,
		ContentFR:  strings.TrimSpace(primary),
		ContentEN:  strings.TrimSpace(secondary),
		SortOrder:  order,
	}
}
