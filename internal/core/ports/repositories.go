package ports

import (
	"context"
	"time"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/query"
)

// Store is the generic persistence capability every resource collection
// supports. It is implemented once (by the Mongo layer) and instantiated per
// concrete resource type.
type Store[T any] interface {
	// Find executes a query specification: filter, composite sort, field
	// projection and skip/limit pagination, in that order.
	Find(ctx context.Context, spec *query.Spec) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, doc *T) (*T, error)
	// UpdateByID applies a partial $set-style update and returns the
	// document as stored afterwards.
	UpdateByID(ctx context.Context, id string, set map[string]any) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// UserRepository persists principals. Read methods exclude the password hash
// unless the name says otherwise.
type UserRepository interface {
	Store[domain.User]

	FindByEmailWithPassword(ctx context.Context, email string) (*domain.User, error)
	FindByIDWithPassword(ctx context.Context, id string) (*domain.User, error)
	// FindByResetToken looks a principal up by the stored one-way hash of a
	// reset token, including the pending reset state.
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// SetResetToken stores the hashed reset token and its expiry.
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	// ClearResetToken removes pending reset state, making the token single use.
	ClearResetToken(ctx context.Context, id string) error
	// UpdatePassword stores a new hash, stamps passwordChangedAt and clears
	// any pending reset state in one atomic document update.
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error

	Deactivate(ctx context.Context, id string) error
}

// TourRepository adds the tour-specific aggregations on top of the generic
// store. UpdateRating is the only writer of the denormalized summary fields.
type TourRepository interface {
	Store[domain.Tour]

	UpdateRating(ctx context.Context, tourID string, average float64, quantity int) error
	Stats(ctx context.Context) ([]domain.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
}

// ReviewRepository adds the grouped rating aggregation used by the recompute
// path.
type ReviewRepository interface {
	Store[domain.Review]

	// RatingSummary groups all reviews of a tour into count + mean rating.
	RatingSummary(ctx context.Context, tourID string) (*domain.RatingSummary, error)
	// DistinctTourIDs lists every tour that currently has reviews.
	DistinctTourIDs(ctx context.Context) ([]string, error)
}

// Mailer is the outbound notification capability. Delivery failures during
// the reset flow trigger a compensating rollback in the caller.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RateLimiter gates repeated attempts against credential endpoints.
type RateLimiter interface {
	// Allow reports whether another attempt is permitted for key within the
	// current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
