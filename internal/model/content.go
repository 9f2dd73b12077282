package model

import (
	"time"
)

// PropertyContent is one stored content section of a property, in both
// languages.
type PropertyContent struct {
	ID         string    `db:"id" json:"id"`
	PropertyID string    `db:"property_id" json:"propertyId"`
	SectionKey string    `db:"section_key" json:"sectionKey"`
	Icon       string    `db:"icon" json:"icon"`
	TitleFR    string    `db:"title_fr" json:"titleFr"`
	TitleEN    string    `db:"title_en" json:"titleEn"`
	ContentFR  string    `db:"content_fr" json:"contentFr"`
	ContentEN  string    `db:"content_en" json:"contentEn"`
	SortOrder  int       `db:"sort_order" json:"sortOrder"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// UpsertPropertyContentParams is the write input. A nil ID inserts; optional
// fields left nil take defaults on insert and are kept on update.
type UpsertPropertyContentParams struct {
	ID         *string `json:"id,omitempty" validate:"omitempty,uuid"`
	PropertyID string  `json:"propertyId" validate:"required,uuid"`
	SectionKey string  `json:"sectionKey" validate:"required,max=64"`
	Icon       *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	TitleFR    string  `json:"titleFr" validate:"required,max=200"`
	TitleEN    *string `json:"titleEn,omitempty" validate:"omitempty,max=200"`
	ContentFR  string  `json:"contentFr" validate:"required"`
	ContentEN  *string `json:"contentEn,omitempty"`
	SortOrder  *int    `json:"sortOrder,omitempty" validate:"omitempty,min=0"`
}

// CreatePropertyContentParams is a fully defaulted row ready for insert.
type CreatePropertyContentParams struct {
	PropertyID string `db:"property_id"`
	SectionKey string `db:"section_key"`
	Icon       string `db:"icon"`
	TitleFR    string `db:"title_fr"`
	TitleEN    string `db:"title_en"`
	ContentFR  string `db:"content_fr"`
	ContentEN  string `db:"content_en"`
	SortOrder  int    `db:"sort_order"`
}

type UpdatePropertyContentParams struct {
	SectionKey string
	Icon       *string
	TitleFR    string
	TitleEN    *string
	ContentFR  string
	ContentEN  *string
	SortOrder  *int
}
