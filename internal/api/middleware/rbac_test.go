package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

func runRestrict(t *testing.T, user *domain.User, allowed ...string) (error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(ContextKeyUser, user)
	}

	called := false
	handler := RestrictTo(allowed...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	return handler(c), called
}

func TestRestrictTo_AllowedRole(t *testing.T) {
	err, called := runRestrict(t, &domain.User{Role: domain.RoleAdmin}, domain.RoleAdmin, domain.RoleLeadGuide)
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if !called {
		t.Fatalf("next not called for allowed role")
	}
}

func TestRestrictTo_ForbiddenRole(t *testing.T) {
	err, called := runRestrict(t, &domain.User{Role: domain.RoleUser}, domain.RoleAdmin)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if called {
		t.Fatalf("next must not run for a forbidden role")
	}
}

func TestRestrictTo_MissingPrincipal(t *testing.T) {
	err, called := runRestrict(t, nil, domain.RoleAdmin)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if called {
		t.Fatalf("next must not run without a principal")
	}
}
