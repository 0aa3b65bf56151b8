// Package api assembles the HTTP surface: global middleware, the central
// error handler, and every route group.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/wandertrails/tours-api/docs"
	"github.com/wandertrails/tours-api/internal/api/handler"
	"github.com/wandertrails/tours-api/internal/api/middleware"
	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
	"github.com/wandertrails/tours-api/internal/pkg/config"
)

// Deps carries everything the router wires together. All service fields are
// interfaces so route tests can substitute stubs.
type Deps struct {
	Cfg      *config.Config
	DB       *mongo.Database
	Redis    *redis.Client
	Log      zerolog.Logger
	Auth     ports.AuthService
	Tours    ports.TourService
	Reviews  ports.ReviewService
	Users    ports.UserRepository
	Verifier ports.TokenVerifier
	Limiter  ports.RateLimiter
	Repairer handler.RatingRepairer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("tours"))

	session := middleware.NewSession(d.Verifier, d.Users)
	protect := session.Protect()
	// Public reads still see the principal when a live session is presented.
	optional := session.Optional()

	authHandler := handler.NewAuthHandler(d.Auth, d.Limiter, handler.RateLimitPolicy{
		LoginLimit:  d.Cfg.LoginRateLimit,
		ForgotLimit: d.Cfg.ForgotRateLimit,
		Window:      d.Cfg.RateLimitWindow,
	}, d.Cfg.JWTExpiresIn)
	tourHandler := handler.NewTourHandler(d.Tours, d.Cfg.DefaultPageSize)
	reviewHandler := handler.NewReviewHandler(d.Reviews, d.Cfg.DefaultPageSize)
	userHandler := handler.NewUserHandler(d.Users, d.Cfg.DefaultPageSize)
	adminHandler := handler.NewAdminHandler(d.Repairer)
	healthHandler := handler.NewHealthHandler(d.DB, d.Redis)

	// Probes and operational endpoints.
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.PATCH("/reset-password/:token", authHandler.ResetPassword)
	auth.PATCH("/update-password", authHandler.UpdatePassword, protect)

	users := v1.Group("/users")
	users.GET("/me", userHandler.Me, protect)
	users.PATCH("/me", userHandler.UpdateMe, protect)
	users.DELETE("/me", userHandler.DeleteMe, protect)
	users.GET("", userHandler.List, protect, middleware.RestrictTo(domain.RoleAdmin))
	users.GET("/:id", userHandler.Get, protect, middleware.RestrictTo(domain.RoleAdmin))
	users.PATCH("/:id", userHandler.Update, protect, middleware.RestrictTo(domain.RoleAdmin))
	users.DELETE("/:id", userHandler.Delete, protect, middleware.RestrictTo(domain.RoleAdmin))

	tours := v1.Group("/tours")
	tours.GET("", tourHandler.List, optional)
	tours.GET("/top-5-cheap", tourHandler.TopCheap, optional)
	tours.GET("/stats", tourHandler.Stats, optional)
	tours.GET("/monthly-plan/:year", tourHandler.MonthlyPlan,
		protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide))
	tours.GET("/:id", tourHandler.Get, optional)
	tours.POST("", tourHandler.Create,
		protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
	tours.PATCH("/:id", tourHandler.Update,
		protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
	tours.DELETE("/:id", tourHandler.Delete,
		protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))

	// Nested review routes scoped to one tour.
	tours.GET("/:tourId/reviews", reviewHandler.List, optional)
	tours.POST("/:tourId/reviews", reviewHandler.Create,
		protect, middleware.RestrictTo(domain.RoleUser))

	reviews := v1.Group("/reviews")
	reviews.GET("", reviewHandler.List, optional)
	reviews.GET("/:id", reviewHandler.Get, optional)
	reviews.POST("", reviewHandler.Create,
		protect, middleware.RestrictTo(domain.RoleUser))
	reviews.PATCH("/:id", reviewHandler.Update,
		protect, middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin))
	reviews.DELETE("/:id", reviewHandler.Delete,
		protect, middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin))

	admin := v1.Group("/admin", protect, middleware.RestrictTo(domain.RoleAdmin))
	admin.POST("/recompute-ratings", adminHandler.RecomputeRatings)

	return e
}
