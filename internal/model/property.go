package model

import (
	"time"
)

type Property struct {
	ID               string    `db:"id" json:"id"`
	Slug             string    `db:"slug" json:"slug"`
	Name             string    `db:"name" json:"name"`
	City             string    `db:"city" json:"city"`
	Address          string    `db:"address" json:"address"`
	MonthlyRentCents int       `db:"monthly_rent_cents" json:"monthlyRentCents"`
	TotalRooms       int       `db:"total_rooms" json:"totalRooms"`
	AvailableRooms   int       `db:"available_rooms" json:"availableRooms"`
	CoverImagePath   *string   `db:"cover_image_path" json:"coverImagePath,omitempty"`
	IsActive         bool      `db:"is_active" json:"isActive"`
	SortOrder        int       `db:"sort_order" json:"sortOrder"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

type FAQEntry struct {
	ID          string    `db:"id" json:"id"`
	Category    string    `db:"category" json:"category"`
	QuestionFR  string    `db:"question_fr" json:"questionFr"`
	QuestionEN  string    `db:"question_en" json:"questionEn"`
	AnswerFR    string    `db:"answer_fr" json:"answerFr"`
	AnswerEN    string    `db:"answer_en" json:"answerEn"`
	SortOrder   int       `db:"sort_order" json:"sortOrder"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Localized returns the question and answer in lang, field by field.
func (f *FAQEntry) Localized(lang Language) (question, answer string) {
	return Pick(lang, f.QuestionFR, f.QuestionEN), Pick(lang, f.AnswerFR, f.AnswerEN)
}
