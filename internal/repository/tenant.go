package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/colivhub/portal-server-go/internal/model"
)

type TenantRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*model.Tenant, error)
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

type tenantRepo struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepo{db: db}
}

const selectTenant = `
	SELECT t.*, p.name AS property_name, p.slug AS property_slug
	FROM tenants t
	LEFT JOIN properties p ON p.id = t.property_id
`

// FindActiveByEmail returns the active tenant linked to email, or nil.
func (r *tenantRepo) FindActiveByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, selectTenant+`
		WHERE lower(t.email) = lower($1) AND t.is_active = true
		ORDER BY t.created_at DESC
		LIMIT 1
	`, email)
	return HandleNotFound(&tenant, err)
}

func (r *tenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, selectTenant+`WHERE t.id = $1`, id)
	return HandleNotFound(&tenant, err)
}
