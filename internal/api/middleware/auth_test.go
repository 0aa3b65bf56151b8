package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

type stubVerifier struct {
	claims *ports.AccessClaims
	err    error
}

func (v *stubVerifier) VerifyAccess(string) (*ports.AccessClaims, error) {
	return v.claims, v.err
}

// stubUsers implements ports.UserRepository over a single principal.
type stubUsers struct {
	user *domain.User
}

func (r *stubUsers) Find(context.Context, *query.Spec) ([]domain.User, error) {
	return nil, nil
}

func (r *stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.user != nil && r.user.ID.Hex() == id {
		clone := *r.user
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

func (r *stubUsers) UpdateByID(context.Context, string, map[string]any) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *stubUsers) DeleteByID(context.Context, string) error { return domain.ErrNotFound }

func (r *stubUsers) FindByEmailWithPassword(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *stubUsers) FindByIDWithPassword(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *stubUsers) FindByResetToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *stubUsers) SetResetToken(context.Context, string, string, time.Time) error { return nil }
func (r *stubUsers) ClearResetToken(context.Context, string) error                  { return nil }
func (r *stubUsers) UpdatePassword(context.Context, string, string, time.Time) error {
	return nil
}
func (r *stubUsers) Deactivate(context.Context, string) error { return nil }

func liveUser() *domain.User {
	return &domain.User{
		ID:     primitive.NewObjectID(),
		Name:   "Alice",
		Role:   domain.RoleUser,
		Active: true,
	}
}

func runProtect(t *testing.T, session *Session, authorization string) (echo.Context, error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := session.Protect()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return c, handler(c), called
}

func TestProtect_LiveSession(t *testing.T) {
	user := liveUser()
	session := NewSession(
		&stubVerifier{claims: &ports.AccessClaims{PrincipalID: user.ID.Hex(), IssuedAt: time.Now()}},
		&stubUsers{user: user},
	)

	c, err, called := runProtect(t, session, "Bearer some-token")
	if err != nil {
		t.Fatalf("protect: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}

	got, ok := c.Get(ContextKeyUser).(*domain.User)
	if !ok || got.ID != user.ID {
		t.Fatalf("principal not stored in context")
	}
}

func TestProtect_MissingToken(t *testing.T) {
	session := NewSession(&stubVerifier{}, &stubUsers{})

	_, err, called := runProtect(t, session, "")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if called {
		t.Fatalf("next must not run without a token")
	}
}

func TestProtect_BadHeaderScheme(t *testing.T) {
	session := NewSession(&stubVerifier{}, &stubUsers{})

	_, err, _ := runProtect(t, session, "Token abc")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestProtect_VerifierErrorsPassThrough(t *testing.T) {
	for _, verr := range []error{domain.ErrSessionExpired, domain.ErrInvalidSession} {
		session := NewSession(&stubVerifier{err: verr}, &stubUsers{})
		_, err, _ := runProtect(t, session, "Bearer token")
		if !errors.Is(err, verr) {
			t.Fatalf("expected %v, got %v", verr, err)
		}
	}
}

func TestProtect_PrincipalGone(t *testing.T) {
	// Valid token, but the account no longer exists.
	session := NewSession(
		&stubVerifier{claims: &ports.AccessClaims{PrincipalID: primitive.NewObjectID().Hex(), IssuedAt: time.Now()}},
		&stubUsers{},
	)

	_, err, _ := runProtect(t, session, "Bearer token")
	if !errors.Is(err, domain.ErrPrincipalGone) {
		t.Fatalf("expected ErrPrincipalGone, got %v", err)
	}
}

func TestProtect_DeactivatedPrincipal(t *testing.T) {
	user := liveUser()
	user.Active = false
	session := NewSession(
		&stubVerifier{claims: &ports.AccessClaims{PrincipalID: user.ID.Hex(), IssuedAt: time.Now()}},
		&stubUsers{user: user},
	)

	_, err, _ := runProtect(t, session, "Bearer token")
	if !errors.Is(err, domain.ErrPrincipalGone) {
		t.Fatalf("expected ErrPrincipalGone, got %v", err)
	}
}

func TestProtect_StaleSession(t *testing.T) {
	user := liveUser()
	user.PasswordChangedAt = time.Now()
	session := NewSession(
		&stubVerifier{claims: &ports.AccessClaims{PrincipalID: user.ID.Hex(), IssuedAt: time.Now().Add(-time.Hour)}},
		&stubUsers{user: user},
	)

	_, err, _ := runProtect(t, session, "Bearer token")
	if !errors.Is(err, domain.ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
}

func TestProtect_TokenFromCookie(t *testing.T) {
	user := liveUser()
	session := NewSession(
		&stubVerifier{claims: &ports.AccessClaims{PrincipalID: user.ID.Hex(), IssuedAt: time.Now()}},
		&stubUsers{user: user},
	)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := session.Protect()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("protect via cookie: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestOptional_NoTokenContinuesAnonymously(t *testing.T) {
	session := NewSession(&stubVerifier{err: domain.ErrInvalidSession}, &stubUsers{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := session.Optional()(func(c echo.Context) error {
		called = true
		if c.Get(ContextKeyUser) != nil {
			t.Fatalf("anonymous request must not carry a principal")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("optional: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestOptional_BadTokenContinuesAnonymously(t *testing.T) {
	session := NewSession(&stubVerifier{err: domain.ErrInvalidSession}, &stubUsers{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer junk")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := session.Optional()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("optional: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}
