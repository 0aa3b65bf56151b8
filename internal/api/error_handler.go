package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wandertrails/tours-api/internal/core/domain"
)

// errorResponse is the canonical error envelope. Status is "fail" for client
// errors (4xx) and "error" for server errors (5xx).
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the domain error taxonomy to deterministic HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the envelope {"status": "fail"|"error", "message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		status := "fail"
		if code >= http.StatusInternalServerError {
			status = "error"
		}
		_ = c.JSON(code, errorResponse{Status: status, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from the router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrMalformedQuery):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrResetTokenInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrStaleSession),
		errors.Is(err, domain.ErrPrincipalGone):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "you do not have permission to perform this action"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, domain.ErrMailDelivery):
		return http.StatusInternalServerError, "there was an error sending the email, try again later"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
