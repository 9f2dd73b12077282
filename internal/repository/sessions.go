package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/colivhub/portal-server-go/internal/model"
)

// AuthSessionRepository stores portal sign-in sessions. Only token hashes are
// persisted.
type AuthSessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.AuthSession, error)
	Create(ctx context.Context, params model.CreateAuthSessionParams) (*model.AuthSession, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type authSessionRepo struct {
	db *sqlx.DB
}

func NewAuthSessionRepository(db *sqlx.DB) AuthSessionRepository {
	return &authSessionRepo{db: db}
}

func (r *authSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AuthSession, error) {
	return findLiveSession[model.AuthSession](ctx, r.db, authSessionsTable, tokenHash)
}

func (r *authSessionRepo) Create(ctx context.Context, params model.CreateAuthSessionParams) (*model.AuthSession, error) {
	var session model.AuthSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO auth_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.TokenHash, params.UserID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *authSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return deleteSession(ctx, r.db, authSessionsTable, tokenHash)
}

// DeleteByUserID signs a user out everywhere.
func (r *authSessionRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE user_id = $1`, userID))
}

func (r *authSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return deleteExpiredSessions(ctx, r.db, authSessionsTable)
}

// AdminSessionRepository stores staff sessions. They carry no user: there is
// a single admin password.
type AdminSessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error)
	Create(ctx context.Context, params model.CreateAdminSessionParams) (*model.AdminSession, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type adminSessionRepo struct {
	db *sqlx.DB
}

func NewAdminSessionRepository(db *sqlx.DB) AdminSessionRepository {
	return &adminSessionRepo{db: db}
}

func (r *adminSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	return findLiveSession[model.AdminSession](ctx, r.db, adminSessionsTable, tokenHash)
}

func (r *adminSessionRepo) Create(ctx context.Context, params model.CreateAdminSessionParams) (*model.AdminSession, error) {
	var session model.AdminSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO admin_sessions (token_hash, expires_at)
		VALUES ($1, $2)
		RETURNING *
	`, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *adminSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return deleteSession(ctx, r.db, adminSessionsTable, tokenHash)
}

func (r *adminSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return deleteExpiredSessions(ctx, r.db, adminSessionsTable)
}
