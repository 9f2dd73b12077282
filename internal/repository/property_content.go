package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/colivhub/portal-server-go/internal/database"
	"github.com/colivhub/portal-server-go/internal/model"
)

type PropertyContentRepository interface {
	ListByProperty(ctx context.Context, propertyID string) ([]model.PropertyContent, error)
	FindByID(ctx context.Context, id string) (*model.PropertyContent, error)
	Create(ctx context.Context, params model.CreatePropertyContentParams) (*model.PropertyContent, error)
	Update(ctx context.Context, id string, params model.UpdatePropertyContentParams) (*model.PropertyContent, error)
	CreateBatch(ctx context.Context, rows []model.CreatePropertyContentParams) (int64, error)
	// LockProperty blocks other writers of propertyID until the surrounding
	// transaction ends. Only meaningful on a repository from WithTx.
	LockProperty(ctx context.Context, propertyID string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PropertyContentRepository
}

type propertyContentRepo struct {
	db database.DBTX
}

func NewPropertyContentRepository(db *sqlx.DB) PropertyContentRepository {
	return &propertyContentRepo{db: db}
}

func (r *propertyContentRepo) WithTx(tx *sqlx.Tx) PropertyContentRepository {
	return &propertyContentRepo{db: tx}
}

func (r *propertyContentRepo) ListByProperty(ctx context.Context, propertyID string) ([]model.PropertyContent, error) {
	var rows []model.PropertyContent
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM property_content
		WHERE property_id = $1
		ORDER BY sort_order ASC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *propertyContentRepo) FindByID(ctx context.Context, id string) (*model.PropertyContent, error) {
	var row model.PropertyContent
	err := r.db.GetContext(ctx, &row, `SELECT * FROM property_content WHERE id = $1`, id)
	return HandleNotFound(&row, err)
}

func (r *propertyContentRepo) Create(ctx context.Context, params model.CreatePropertyContentParams) (*model.PropertyContent, error) {
	var row model.PropertyContent
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO property_content (property_id, section_key, icon, title_fr, title_en, content_fr, content_en, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.PropertyID, params.SectionKey, params.Icon, params.TitleFR, params.TitleEN,
		params.ContentFR, params.ContentEN, params.SortOrder)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update overwrites the mutable fields of a row. Nil optional fields keep
// their stored value. Returns (nil, nil) when no row has that id.
func (r *propertyContentRepo) Update(ctx context.Context, id string, params model.UpdatePropertyContentParams) (*model.PropertyContent, error) {
	var row model.PropertyContent
	err := r.db.GetContext(ctx, &row, `
		UPDATE property_content SET
			section_key = $2,
			icon = COALESCE($3, icon),
			title_fr = $4,
			title_en = COALESCE($5, title_en),
			content_fr = $6,
			content_en = COALESCE($7, content_en),
			sort_order = COALESCE($8, sort_order),
			updated_at = $9
		WHERE id = $1
		RETURNING *
	`, id, params.SectionKey, params.Icon, params.TitleFR, params.TitleEN,
		params.ContentFR, params.ContentEN, params.SortOrder, time.Now())
	return HandleNotFound(&row, err)
}

func (r *propertyContentRepo) LockProperty(ctx context.Context, propertyID string) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('property_content:' || $1))`, propertyID)
	return err
}

// CreateBatch inserts all rows in a single statement.
func (r *propertyContentRepo) CreateBatch(ctx context.Context, rows []model.CreatePropertyContentParams) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO property_content (property_id, section_key, icon, title_fr, title_en, content_fr, content_en, sort_order)
		VALUES (:property_id, :section_key, :icon, :title_fr, :title_en, :content_fr, :content_en, :sort_order)
	`, rows)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
