package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/wandertrails/tours-api/internal/api/middleware"
	"github.com/wandertrails/tours-api/internal/core/domain"
)

// currentUser extracts the principal the session guard stored in context.
// Handlers behind Protect call this instead of re-reading the token; a
// missing principal means the route was wired without the guard.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.ContextKeyUser).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}
