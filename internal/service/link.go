package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/model"
)

const linkIssuer = "colivhub-portal"

// LinkClaims are carried by emailed sign-in and recovery links. The JWT ID
// makes each link single use.
type LinkClaims struct {
	Email   string            `json:"email"`
	Purpose model.LinkPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// LinkSigner issues and verifies HS256 link tokens.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *LinkSigner) TTL() time.Duration {
	return s.ttl
}

func (s *LinkSigner) Sign(email string, purpose model.LinkPurpose) (string, error) {
	now := s.now()
	claims := LinkClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    linkIssuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign link token: %w", err)
	}
	return token, nil
}

// Parse verifies signature, expiry, issuer and purpose.
func (s *LinkSigner) Parse(token string, purpose model.LinkPurpose) (*LinkClaims, error) {
	claims := &LinkClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken("invalid link").WithCause(err)
	}
	if claims.Purpose != purpose || claims.ID == "" || claims.Email == "" {
		return nil, apperrors.InvalidToken("invalid link")
	}
	return claims, nil
}
