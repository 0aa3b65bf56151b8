package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

// ReviewService owns review mutations and the denormalized rating summary on
// the parent tour. Every mutation ends with a recompute of the affected
// tour(s); the before-hook on update/delete captures which tour the review
// belonged to, since the mutation may change or remove that linkage.
//
// The recompute is a read-then-write across two collections with no
// transaction: a crash in between leaves a stale aggregate that the next
// write (or the repair dispatcher) overwrites.
type ReviewService struct {
	reviews ports.ReviewRepository
	tours   ports.TourRepository
	log     zerolog.Logger
}

func NewReviewService(reviews ports.ReviewRepository, tours ports.TourRepository, log zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours, log: log}
}

func (s *ReviewService) List(ctx context.Context, spec *query.Spec) ([]domain.Review, error) {
	return s.reviews.Find(ctx, spec)
}

func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	return s.reviews.FindByID(ctx, id)
}

// Create stores a review and recomputes the parent's summary. The one-review-
// per-author-per-tour rule is enforced by the store's unique index, so a
// concurrent duplicate surfaces here as ErrDuplicate rather than racing past
// an application-level check.
func (s *ReviewService) Create(ctx context.Context, in ports.CreateReviewInput) (*domain.Review, error) {
	// The parent must exist before a review can reference it.
	if _, err := s.tours.FindByID(ctx, in.TourID); err != nil {
		return nil, err
	}
	tourID, err := domain.ParseID(in.TourID)
	if err != nil {
		return nil, err
	}
	userID, err := domain.ParseID(in.UserID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		Review:    in.Review,
		Rating:    in.Rating,
		TourID:    tourID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.reviews.Create(ctx, review)
	if err != nil {
		return nil, err
	}

	if err := s.RecomputeRating(ctx, created.TourID.Hex()); err != nil {
		s.log.Error().Err(err).Str("tour_id", created.TourID.Hex()).Msg("rating recompute after create failed")
	}
	return created, nil
}

// Update applies a partial update. The review's tour is captured before the
// write; both the old and (if relinked) new parent are recomputed afterwards.
func (s *ReviewService) Update(ctx context.Context, id string, set map[string]any) (*domain.Review, error) {
	before, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.reviews.UpdateByID(ctx, id, set)
	if err != nil {
		return nil, err
	}

	if err := s.RecomputeRating(ctx, before.TourID.Hex()); err != nil {
		s.log.Error().Err(err).Str("tour_id", before.TourID.Hex()).Msg("rating recompute after update failed")
	}
	if updated.TourID != before.TourID {
		if err := s.RecomputeRating(ctx, updated.TourID.Hex()); err != nil {
			s.log.Error().Err(err).Str("tour_id", updated.TourID.Hex()).Msg("rating recompute after relink failed")
		}
	}
	return updated, nil
}

// Delete removes a review and recomputes the parent it belonged to.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	before, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteByID(ctx, id); err != nil {
		return err
	}

	if err := s.RecomputeRating(ctx, before.TourID.Hex()); err != nil {
		s.log.Error().Err(err).Str("tour_id", before.TourID.Hex()).Msg("rating recompute after delete failed")
	}
	return nil
}

// RecomputeRating scans all reviews of a tour and overwrites the tour's
// count + mean. With zero reviews the mean reverts to the fixed default so
// the field never holds an undefined value.
func (s *ReviewService) RecomputeRating(ctx context.Context, tourID string) error {
	summary, err := s.reviews.RatingSummary(ctx, tourID)
	if err != nil {
		return err
	}

	average := domain.DefaultRatingsAverage
	quantity := 0
	if summary.Count > 0 {
		average = roundToTenth(summary.Average)
		quantity = int(summary.Count)
	}

	if err := s.tours.UpdateRating(ctx, tourID, average, quantity); err != nil {
		// A review mutation for a since-deleted tour has no summary to keep.
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	s.log.Debug().
		Str("tour_id", tourID).
		Int("quantity", quantity).
		Float64("average", average).
		Msg("rating summary recomputed")
	return nil
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
