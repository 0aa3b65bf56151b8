package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
)

// TokenService issues and verifies signed access tokens and computes the
// one-time reset tokens. Access tokens are stateless: nothing is persisted,
// verification is signature + expiry only.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
}

func NewTokenService(secret string, accessTTL, resetTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, resetTTL: resetTTL}
}

// IssueAccess produces a signed HS256 token binding the principal id and the
// issue time, valid for the configured window.
func (s *TokenService) IssueAccess(principalID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   principalID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// VerifyAccess checks signature and expiry, failing closed on any
// malformation. Expiry is reported distinctly so the client knows a refresh
// is worth attempting.
func (s *TokenService) VerifyAccess(token string) (*ports.AccessClaims, error) {
	claims := jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrInvalidSession
	}
	if !tkn.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, domain.ErrInvalidSession
	}

	return &ports.AccessClaims{
		PrincipalID: claims.Subject,
		IssuedAt:    claims.IssuedAt.Time,
	}, nil
}

// IssueReset generates a one-time reset token. The plain form is delivered
// out-of-band and never stored; only the one-way hash and the expiry persist.
func (s *TokenService) IssueReset() (plain, hash string, expires time.Time, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("reset token: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, s.HashResetToken(plain), time.Now().Add(s.resetTTL), nil
}

// HashResetToken computes the one-way hash stored in place of the plain token.
func (s *TokenService) HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ConsumeReset validates a supplied plain token against the stored hash and
// expiry. The hash comparison runs in constant time. The caller must clear
// the stored state on success — a reset token is single use.
func (s *TokenService) ConsumeReset(plain, storedHash string, storedExpires time.Time) bool {
	if storedHash == "" || time.Now().After(storedExpires) {
		return false
	}
	supplied := s.HashResetToken(plain)
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(storedHash)) == 1
}
