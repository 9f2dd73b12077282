package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/colivhub/portal-server-go/internal/model"
)

type PropertyRepository interface {
	ListActive(ctx context.Context) ([]model.Property, error)
	FindBySlug(ctx context.Context, slug string) (*model.Property, error)
	FindByID(ctx context.Context, id string) (*model.Property, error)
}

type propertyRepo struct {
	db *sqlx.DB
}

func NewPropertyRepository(db *sqlx.DB) PropertyRepository {
	return &propertyRepo{db: db}
}

func (r *propertyRepo) ListActive(ctx context.Context) ([]model.Property, error) {
	var properties []model.Property
	err := r.db.SelectContext(ctx, &properties, `
		SELECT * FROM properties
		WHERE is_active = true
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *propertyRepo) FindBySlug(ctx context.Context, slug string) (*model.Property, error) {
	var property model.Property
	err := r.db.GetContext(ctx, &property, `
		SELECT * FROM properties WHERE slug = $1 AND is_active = true
	`, slug)
	return HandleNotFound(&property, err)
}

func (r *propertyRepo) FindByID(ctx context.Context, id string) (*model.Property, error) {
	var property model.Property
	err := r.db.GetContext(ctx, &property, `SELECT * FROM properties WHERE id = $1`, id)
	return HandleNotFound(&property, err)
}
