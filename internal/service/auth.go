package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/config"
	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/mailer"
	"github.com/colivhub/portal-server-go/internal/model"
	redisclient "github.com/colivhub/portal-server-go/internal/redis"
	"github.com/colivhub/portal-server-go/internal/repository"
	"github.com/colivhub/portal-server-go/internal/util"
)

const minPasswordLength = 8

type AuthServiceConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	PublicBaseURL string
}

// AuthService is the authentication subsystem of the portal: emailed sign-in
// links, password sign-in, recovery and sessions. It knows nothing about
// tenants.
type AuthService struct {
	users    repository.AuthUserRepository
	sessions repository.AuthSessionRepository
	signer   *LinkSigner
	redis    *redisclient.Client
	limiter  *RateLimiter
	mailer   mailer.Mailer
	tokens   util.TokenHasher
	cfg      AuthServiceConfig
}

func NewAuthService(
	users repository.AuthUserRepository,
	sessions repository.AuthSessionRepository,
	signer *LinkSigner,
	redisClient *redisclient.Client,
	m mailer.Mailer,
	cfg AuthServiceConfig,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		signer:   signer,
		redis:    redisClient,
		limiter:  NewRateLimiter(redisClient),
		mailer:   m,
		tokens:   util.NewTokenHasher(cfg.SessionSecret),
		cfg:      cfg,
	}
}

// SignInResult is a fresh session. Token goes into the session cookie.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  *model.Identity
}

// RequestMagicLink emails a single-use sign-in link. Unknown addresses get a
// link too; tenant linkage is checked after sign-in.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string, lang model.Language) error {
	email, ok := util.NormalizeEmail(email)
	if !ok {
		return apperrors.InvalidInput("email", "invalid email address")
	}
	if err := s.limiter.Allow(ctx, "magiclink:"+email, config.LinkRequestLimit, config.LinkRequestWindow); err != nil {
		return err
	}
	return s.sendLink(ctx, email, model.LinkPurposeMagic, lang, "/auth/callback")
}

// VerifyMagicLink consumes a sign-in link and opens a session, creating the
// auth user on first sign-in.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (*SignInResult, error) {
	claims, err := s.consumeLink(ctx, token, model.LinkPurposeMagic)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, claims.Email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return s.openSession(ctx, user)
}

func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	email, ok := util.NormalizeEmail(email)
	if !ok {
		return nil, apperrors.InvalidCredentials()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil || user.PasswordHash == nil || !util.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}
	return s.openSession(ctx, user)
}

// RequestRecovery emails a password recovery link when the address belongs
// to a user. It reports success either way.
func (s *AuthService) RequestRecovery(ctx context.Context, email string, lang model.Language) error {
	email, ok := util.NormalizeEmail(email)
	if !ok {
		return apperrors.InvalidInput("email", "invalid email address")
	}
	if err := s.limiter.Allow(ctx, "recovery:"+email, config.LinkRequestLimit, config.LinkRequestWindow); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		log.Info().Str("email", email).Msg("recovery requested for unknown email")
		return nil
	}
	return s.sendLink(ctx, email, model.LinkPurposeRecovery, lang, "/auth/reset-password")
}

// CompleteRecovery sets a new password from a recovery link, signs the user
// out everywhere and opens a new session.
func (s *AuthService) CompleteRecovery(ctx context.Context, token, newPassword string) (*SignInResult, error) {
	if len(newPassword) < minPasswordLength {
		return nil, apperrors.InvalidInput("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	claims, err := s.consumeLink(ctx, token, model.LinkPurposeRecovery)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.InvalidToken("invalid link")
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// UpdatePassword changes the password of a signed-in user.
func (s *AuthService) UpdatePassword(ctx context.Context, identity *model.Identity, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return s.setPassword(ctx, identity.UserID, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := util.HashPassword(password)
	if errors.Is(err, util.ErrPasswordTooLong) {
		return apperrors.InvalidInput("password", "must be at most 72 bytes")
	}
	if err != nil {
		return apperrors.Internal("failed to hash password").WithCause(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperrors.Database(err)
	}
	if n, err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("failed to revoke sessions after password change")
	} else {
		log.Info().Str("userId", userID).Int64("revoked", n).Msg("password updated")
	}
	return nil
}

// CurrentIdentity resolves a session cookie value. No session is (nil, nil).
func (s *AuthService) CurrentIdentity(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.FindByTokenHash(ctx, s.tokens.Hash(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, err
	}

	identity := user.Identity()
	identity.SessionID = session.ID
	return identity, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByTokenHash(ctx, s.tokens.Hash(token))
}

func (s *AuthService) openSession(ctx context.Context, user *model.AuthUser) (*SignInResult, error) {
	token, digest, err := s.tokens.Issue()
	if err != nil {
		return nil, apperrors.Internal("failed to generate session").WithCause(err)
	}

	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	session, err := s.sessions.Create(ctx, model.CreateAuthSessionParams{
		TokenHash: digest,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.users.UpdateLastSignIn(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("userId", user.ID).Msg("failed to update last sign-in")
	}

	identity := user.Identity()
	identity.SessionID = session.ID
	return &SignInResult{Token: token, ExpiresAt: expiresAt, Identity: identity}, nil
}

func (s *AuthService) sendLink(ctx context.Context, email string, purpose model.LinkPurpose, lang model.Language, path string) error {
	token, err := s.signer.Sign(email, purpose)
	if err != nil {
		return apperrors.Internal("failed to create link").WithCause(err)
	}

	link := s.cfg.PublicBaseURL + path + "?" + url.Values{"token": {token}, "lang": {string(lang)}}.Encode()
	msg, err := mailer.LinkMessage(purpose, lang, email, link, int(s.signer.TTL().Minutes()))
	if err != nil {
		return apperrors.Internal("failed to render email").WithCause(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperrors.External("mail", err)
	}

	log.Info().Str("email", email).Str("purpose", string(purpose)).Msg("link sent")
	return nil
}

// consumeLink verifies a link token and marks it used. A second use of the
// same link is rejected.
func (s *AuthService) consumeLink(ctx context.Context, token string, purpose model.LinkPurpose) (*LinkClaims, error) {
	claims, err := s.signer.Parse(token, purpose)
	if err != nil {
		return nil, err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil, apperrors.TokenExpired()
	}
	first, err := s.redis.SetNX(ctx, redisclient.LinkTokenKey(claims.ID), "1", ttl).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "link verification unavailable", err)
	}
	if !first {
		return nil, apperrors.InvalidToken("link already used")
	}
	return claims, nil
}
