package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/colivhub/portal-server-go/internal/model"
)

type FAQRepository interface {
	ListPublished(ctx context.Context) ([]model.FAQEntry, error)
}

type faqRepo struct {
	db *sqlx.DB
}

func NewFAQRepository(db *sqlx.DB) FAQRepository {
	return &faqRepo{db: db}
}

// ListPublished returns every published entry; filtering by category is done
// by callers on the cached collection.
func (r *faqRepo) ListPublished(ctx context.Context) ([]model.FAQEntry, error) {
	var entries []model.FAQEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM faq_entries
		WHERE is_published = true
		ORDER BY category ASC, sort_order ASC
	`)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
