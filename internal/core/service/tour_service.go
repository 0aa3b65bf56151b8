package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
)

// TourService is mostly a pass-through to the store; the only domain logic
// it owns is slug derivation and guarding the aggregate summary fields from
// client writes.
type TourService struct {
	tours ports.TourRepository
	log   zerolog.Logger
}

func NewTourService(tours ports.TourRepository, log zerolog.Logger) *TourService {
	return &TourService{tours: tours, log: log}
}

func (s *TourService) List(ctx context.Context, spec *query.Spec) ([]domain.Tour, error) {
	return s.tours.Find(ctx, spec)
}

func (s *TourService) Get(ctx context.Context, id string) (*domain.Tour, error) {
	return s.tours.FindByID(ctx, id)
}

func (s *TourService) Create(ctx context.Context, tour *domain.Tour) (*domain.Tour, error) {
	tour.Slug = slugify(tour.Name)
	tour.RatingsAverage = domain.DefaultRatingsAverage
	tour.RatingsQuantity = 0
	tour.CreatedAt = time.Now().UTC()

	created, err := s.tours.Create(ctx, tour)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("tour_id", created.ID.Hex()).Str("slug", created.Slug).Msg("tour created")
	return created, nil
}

// Update applies a partial update. The handler layer never maps the summary
// fields into set, so they cannot be authored by clients.
func (s *TourService) Update(ctx context.Context, id string, set map[string]any) (*domain.Tour, error) {
	if name, ok := set["name"].(string); ok {
		set["slug"] = slugify(name)
	}
	return s.tours.UpdateByID(ctx, id, set)
}

func (s *TourService) Delete(ctx context.Context, id string) error {
	return s.tours.DeleteByID(ctx, id)
}

func (s *TourService) Stats(ctx context.Context) ([]domain.TourStats, error) {
	return s.tours.Stats(ctx)
}

func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	return s.tours.MonthlyPlan(ctx, year)
}

// slugify lowercases the name and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // trim leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
