package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/core/query"
	"github.com/wandertrails/tours-api/internal/pkg/config"
)

type routeVerifier struct {
	principalID string
}

func (v *routeVerifier) VerifyAccess(token string) (*ports.AccessClaims, error) {
	if token != "good" {
		return nil, domain.ErrInvalidSession
	}
	return &ports.AccessClaims{PrincipalID: v.principalID, IssuedAt: time.Now()}, nil
}

// routeUsers records principal lookups so tests can observe the guard running.
type routeUsers struct {
	mu      sync.Mutex
	user    *domain.User
	lookups int
}

func (r *routeUsers) reset(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = user
	r.lookups = 0
}

func (r *routeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.user == nil || r.user.ID.Hex() != id {
		return nil, domain.ErrNotFound
	}
	return r.user, nil
}

func (r *routeUsers) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *routeUsers) Find(context.Context, *query.Spec) ([]domain.User, error) { return nil, nil }
func (r *routeUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}
func (r *routeUsers) UpdateByID(context.Context, string, map[string]any) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (r *routeUsers) DeleteByID(context.Context, string) error { return domain.ErrNotFound }
func (r *routeUsers) FindByEmailWithPassword(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (r *routeUsers) FindByIDWithPassword(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (r *routeUsers) FindByResetToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (r *routeUsers) SetResetToken(context.Context, string, string, time.Time) error { return nil }
func (r *routeUsers) ClearResetToken(context.Context, string) error                  { return nil }
func (r *routeUsers) UpdatePassword(context.Context, string, string, time.Time) error {
	return nil
}
func (r *routeUsers) Deactivate(context.Context, string) error { return nil }

type routeTours struct{}

func (s *routeTours) List(context.Context, *query.Spec) ([]domain.Tour, error) { return nil, nil }
func (s *routeTours) Get(context.Context, string) (*domain.Tour, error) {
	return nil, domain.ErrNotFound
}
func (s *routeTours) Create(_ context.Context, t *domain.Tour) (*domain.Tour, error) { return t, nil }
func (s *routeTours) Update(context.Context, string, map[string]any) (*domain.Tour, error) {
	return nil, domain.ErrNotFound
}
func (s *routeTours) Delete(context.Context, string) error               { return domain.ErrNotFound }
func (s *routeTours) Stats(context.Context) ([]domain.TourStats, error) { return nil, nil }
func (s *routeTours) MonthlyPlan(context.Context, int) ([]domain.MonthlyPlanEntry, error) {
	return nil, nil
}

// The prometheus middleware registers its collectors in the process-wide
// default registry, so the route table is assembled once and shared; the
// stubs carry per-test state instead.
var (
	routerOnce   sync.Once
	sharedUsers  = &routeUsers{}
	sharedTokens = &routeVerifier{}
	sharedRouter http.Handler
)

func testRouter() http.Handler {
	routerOnce.Do(func() {
		sharedRouter = NewRouter(Deps{
			Cfg: &config.Config{
				DefaultPageSize: 100,
				LoginRateLimit:  10,
				ForgotRateLimit: 3,
				RateLimitWindow: time.Hour,
				JWTExpiresIn:    time.Hour,
			},
			Log:      zerolog.Nop(),
			Tours:    &routeTours{},
			Users:    sharedUsers,
			Verifier: sharedTokens,
		})
	})
	return sharedRouter
}

func TestRouter_PublicToursTolerateBadToken(t *testing.T) {
	e := testRouter()
	sharedUsers.reset(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/tours", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("public listing must not reject a bad token: got %d", rec.Code)
	}
}

func TestRouter_PublicToursLoadPrincipalWhenPresented(t *testing.T) {
	e := testRouter()
	id := primitive.NewObjectID()
	sharedUsers.reset(&domain.User{ID: id, Role: domain.RoleUser, Active: true})
	sharedTokens.principalID = id.Hex()

	req := httptest.NewRequest(http.MethodGet, "/v1/tours", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sharedUsers.lookupCount() == 0 {
		t.Fatalf("a presented live session must load the principal on public reads")
	}
}

func TestRouter_ProtectedRouteRejectsBadToken(t *testing.T) {
	e := testRouter()
	sharedUsers.reset(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
