package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/colivhub/portal-server-go/internal/model"
)

type AuthUserRepository interface {
	FindByID(ctx context.Context, id string) (*model.AuthUser, error)
	FindByEmail(ctx context.Context, email string) (*model.AuthUser, error)
	// Create inserts a user with a confirmed email, or returns the existing
	// one for that email.
	Create(ctx context.Context, email string) (*model.AuthUser, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateLastSignIn(ctx context.Context, id string) error
}

type authUserRepo struct {
	db *sqlx.DB
}

func NewAuthUserRepository(db *sqlx.DB) AuthUserRepository {
	return &authUserRepo{db: db}
}

func (r *authUserRepo) FindByID(ctx context.Context, id string) (*model.AuthUser, error) {
	var user model.AuthUser
	err := r.db.GetContext(ctx, &user, `SELECT * FROM auth_users WHERE id = $1`, id)
	return HandleNotFound(&user, err)
}

func (r *authUserRepo) FindByEmail(ctx context.Context, email string) (*model.AuthUser, error) {
	var user model.AuthUser
	err := r.db.GetContext(ctx, &user, `SELECT * FROM auth_users WHERE email = lower($1)`, email)
	return HandleNotFound(&user, err)
}

func (r *authUserRepo) Create(ctx context.Context, email string) (*model.AuthUser, error) {
	var user model.AuthUser
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO auth_users (email, email_confirmed_at)
		VALUES (lower($1), $2)
		ON CONFLICT (email) DO UPDATE SET
			email_confirmed_at = COALESCE(auth_users.email_confirmed_at, EXCLUDED.email_confirmed_at)
		RETURNING *
	`, email, time.Now())
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *authUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_users SET password_hash = $2 WHERE id = $1
	`, id, passwordHash)
	return err
}

func (r *authUserRepo) UpdateLastSignIn(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_users SET last_sign_in_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}
