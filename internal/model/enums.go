package model

import (
	"strings"

	"golang.org/x/text/language"
)

// Language selects which variant of bilingual content is served.
type Language string

const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"

	// LanguagePrimary is the language every row is authored in first.
	LanguagePrimary = LanguageFR
)

var (
	supportedLanguages = []Language{LanguageFR, LanguageEN}
	languageMatcher    = language.NewMatcher([]language.Tag{language.French, language.English})
)

func (l Language) IsPrimary() bool {
	return l == LanguagePrimary
}

func (l Language) Valid() bool {
	for _, s := range supportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// ParseLanguage accepts a bare code ("en"), a regional tag ("fr-CA") or a
// full Accept-Language header and falls back to the primary language.
func ParseLanguage(value string) Language {
	value = strings.TrimSpace(value)
	if value == "" {
		return LanguagePrimary
	}

	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return LanguagePrimary
	}

	_, idx, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return LanguagePrimary
	}
	return supportedLanguages[idx]
}

// Pick returns the text for lang, using the primary text when the requested
// variant is empty.
func Pick(lang Language, primary, secondary string) string {
	if lang.IsPrimary() || secondary == "" {
		return primary
	}
	return secondary
}
