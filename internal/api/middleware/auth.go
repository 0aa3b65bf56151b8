// Package middleware implements the session guard: token extraction and
// verification, principal lookup with the stale-session check, and role-based
// access control. Handlers behind Protect can assume a live principal is in
// the request context.
package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/api/metrics"
	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
)

// Context keys set by the guard and read by handlers.
const (
	ContextKeyUser   = "current_user"
	ContextKeyClaims = "access_claims"
)

// AccessCookie is the cookie the token is also accepted from, as an
// alternative to the Authorization header.
const AccessCookie = "jwt"

// Session is the authentication guard. Verification alone is not enough to
// admit a request: the principal must still exist, still be active, and must
// not have rotated its credential after the token was issued.
type Session struct {
	verifier ports.TokenVerifier
	users    ports.UserRepository
}

func NewSession(verifier ports.TokenVerifier, users ports.UserRepository) *Session {
	return &Session{verifier: verifier, users: users}
}

// Protect rejects the request unless it carries a live session. On success
// the principal and claims are stored in the request context.
func (s *Session) Protect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, claims, err := s.authenticate(c)
			if err != nil {
				return err
			}
			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

// Optional authenticates when a token is present but never rejects. Handlers
// see the principal in context if, and only if, the session was live.
func (s *Session) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if extractToken(c) != "" {
				if user, claims, err := s.authenticate(c); err == nil {
					c.Set(ContextKeyUser, user)
					c.Set(ContextKeyClaims, claims)
				}
			}
			return next(c)
		}
	}
}

func (s *Session) authenticate(c echo.Context) (*domain.User, *ports.AccessClaims, error) {
	token := extractToken(c)
	if token == "" {
		metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
		return nil, nil, domain.ErrUnauthenticated
	}

	claims, err := s.verifier.VerifyAccess(token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			metrics.TokenVerificationsTotal.WithLabelValues("expired").Inc()
		} else {
			metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		}
		return nil, nil, err
	}

	user, err := s.users.FindByID(c.Request().Context(), claims.PrincipalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.TokenVerificationsTotal.WithLabelValues("gone").Inc()
			return nil, nil, domain.ErrPrincipalGone
		}
		return nil, nil, err
	}
	if !user.Active {
		metrics.TokenVerificationsTotal.WithLabelValues("gone").Inc()
		return nil, nil, domain.ErrPrincipalGone
	}
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		metrics.TokenVerificationsTotal.WithLabelValues("stale").Inc()
		return nil, nil, domain.ErrStaleSession
	}

	metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
	return user, claims, nil
}

// extractToken reads the access token from the Authorization header, falling
// back to the session cookie.
func extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}
