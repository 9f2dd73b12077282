package model

import (
	"time"
)

// AuthUser is an authentication record. It carries no tenant data.
type AuthUser struct {
	ID               string     `db:"id" json:"id"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     *string    `db:"password_hash" json:"-"`
	EmailConfirmedAt *time.Time `db:"email_confirmed_at" json:"emailConfirmedAt,omitempty"`
	LastSignInAt     *time.Time `db:"last_sign_in_at" json:"lastSignInAt,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	SessionID string `json:"-"`
}

func (u *AuthUser) Identity() *Identity {
	return &Identity{UserID: u.ID, Email: u.Email}
}

type AuthSession struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	UserID    string    `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateAuthSessionParams struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

type AdminSession struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateAdminSessionParams struct {
	TokenHash string
	ExpiresAt time.Time
}

// LinkPurpose distinguishes emailed sign-in links from recovery links.
type LinkPurpose string

const (
	LinkPurposeMagic    LinkPurpose = "magiclink"
	LinkPurposeRecovery LinkPurpose = "recovery"
)
