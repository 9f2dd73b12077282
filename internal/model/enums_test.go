package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected Language
	}{
		{"", LanguageFR},
		{"fr", LanguageFR},
		{"en", LanguageEN},
		{"EN", LanguageEN},
		{"en-GB", LanguageEN},
		{"fr-CA,fr;q=0.9,en;q=0.8", LanguageFR},
		{"de-DE,en;q=0.7", LanguageEN},
		{"de", LanguageFR},
		{"!!not a tag", LanguageFR},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLanguage(tt.input))
		})
	}
}

func TestPick(t *testing.T) {
	t.Run("primary language ignores secondary text", func(t *testing.T) {
		assert.Equal(t, "Règles", Pick(LanguageFR, "Règles", "Rules"))
	})

	t.Run("secondary language uses its own text", func(t *testing.T) {
		assert.Equal(t, "Rules", Pick(LanguageEN, "Règles", "Rules"))
	})

	t.Run("empty secondary falls back to primary", func(t *testing.T) {
		assert.Equal(t, "Règles", Pick(LanguageEN, "Règles", ""))
	})
}

func TestFAQEntryLocalized(t *testing.T) {
	entry := &FAQEntry{
		QuestionFR: "Combien coûte une chambre ?",
		QuestionEN: "How much is a room?",
		AnswerFR:   "À partir de 650 €.",
	}

	q, a := entry.Localized(LanguageEN)
	assert.Equal(t, "How much is a room?", q)
	assert.Equal(t, "À partir de 650 €.", a)
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LanguageFR.Valid())
	assert.True(t, LanguageEN.Valid())
	assert.False(t, Language("de").Valid())
}
