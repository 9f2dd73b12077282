package service

import (
	"context"
	"time"

	"github.com/colivhub/portal-server-go/internal/model"
	"github.com/colivhub/portal-server-go/internal/repository"
	"github.com/colivhub/portal-server-go/internal/util"
)

const adminSessionTTL = 24 * time.Hour

// AdminService authenticates staff with the single admin password.
type AdminService struct {
	sessionRepo  repository.AdminSessionRepository
	passwordHash string
	tokens       util.TokenHasher
}

func NewAdminService(sessionRepo repository.AdminSessionRepository, passwordHash, sessionSecret string) *AdminService {
	return &AdminService{
		sessionRepo:  sessionRepo,
		passwordHash: passwordHash,
		tokens:       util.NewTokenHasher(sessionSecret),
	}
}

// Enabled is false when no admin password is configured.
func (s *AdminService) Enabled() bool {
	return s.passwordHash != ""
}

// Login returns a new session token, or "" when the password is wrong.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	if !s.Enabled() || !util.CheckPasswordHash(password, s.passwordHash) {
		return "", nil
	}

	token, digest, err := s.tokens.Issue()
	if err != nil {
		return "", err
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateAdminSessionParams{
		TokenHash: digest,
		ExpiresAt: time.Now().Add(adminSessionTTL),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteByTokenHash(ctx, s.tokens.Hash(token))
}

func (s *AdminService) ValidateSession(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	session, err := s.sessionRepo.FindByTokenHash(ctx, s.tokens.Hash(token))
	return err == nil && session != nil
}
