package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

// RestrictTo enforces role-based access control. It must run after Protect;
// a request that somehow reaches it without a principal is rejected too.
func RestrictTo(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ContextKeyUser).(*domain.User)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
