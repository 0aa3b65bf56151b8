package ports

import (
	"context"
	"time"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/query"
)

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	PrincipalID string
	IssuedAt    time.Time
}

// TokenVerifier is the slice of the token service the session guard needs.
type TokenVerifier interface {
	VerifyAccess(token string) (*AccessClaims, error)
}

// SignupInput carries the fields accepted on registration. Role is never
// client-supplied; new principals always start as regular users.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// AuthService implements the credential lifecycle: registration, login, the
// reset-token flow and password rotation.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// ForgotPassword issues a reset token and delivers it out-of-band.
	// resetURL is the client-facing URL prefix the plain token is appended to.
	ForgotPassword(ctx context.Context, email, resetURL string) error
	// ResetPassword consumes a one-time reset token and returns a fresh
	// access token.
	ResetPassword(ctx context.Context, plainToken, password, confirm string) (string, error)
	// UpdatePassword rotates the credential of a logged-in principal and
	// returns a fresh access token; all earlier tokens become stale.
	UpdatePassword(ctx context.Context, principalID, current, password, confirm string) (string, error)
}

// TourService owns the tour resource surface plus the reporting aggregations.
type TourService interface {
	List(ctx context.Context, spec *query.Spec) ([]domain.Tour, error)
	Get(ctx context.Context, id string) (*domain.Tour, error)
	Create(ctx context.Context, tour *domain.Tour) (*domain.Tour, error)
	Update(ctx context.Context, id string, set map[string]any) (*domain.Tour, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) ([]domain.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
}

// CreateReviewInput carries a new review; UserID comes from the session
// principal, never the request body.
type CreateReviewInput struct {
	Review string
	Rating float64
	TourID string
	UserID string
}

// ReviewService wraps review mutations with the aggregate-consistency hooks.
type ReviewService interface {
	List(ctx context.Context, spec *query.Spec) ([]domain.Review, error)
	Get(ctx context.Context, id string) (*domain.Review, error)
	Create(ctx context.Context, in CreateReviewInput) (*domain.Review, error)
	Update(ctx context.Context, id string, set map[string]any) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	RecomputeRating(ctx context.Context, tourID string) error
}
