// Command server runs the tours API.
//
// @title        Tours API
// @version      1.0
// @description  Tour, review and account management API with denormalized rating summaries.
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wandertrails/tours-api/internal/api"
	"github.com/wandertrails/tours-api/internal/core/service"
	mongodb "github.com/wandertrails/tours-api/internal/infrastructure/db/mongo"
	redisdb "github.com/wandertrails/tours-api/internal/infrastructure/db/redis"
	"github.com/wandertrails/tours-api/internal/infrastructure/notify"
	"github.com/wandertrails/tours-api/internal/infrastructure/queue"
	"github.com/wandertrails/tours-api/internal/pkg/config"
	"github.com/wandertrails/tours-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	userRepo := mongodb.NewUserRepository(db)
	tourRepo := mongodb.NewTourRepository(db)
	reviewRepo := mongodb.NewReviewRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, tourRepo, reviewRepo); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.ResetTokenTTL)
	mailer := notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	authService := service.NewAuthService(userRepo, tokens, mailer, log)
	tourService := service.NewTourService(tourRepo, log)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, log)

	dispatcher := queue.NewDispatcher(0, reviewRepo, reviewService, log)
	dispatcher.Start(ctx)

	limiter := redisdb.NewRateLimiter(rdb, log)

	e := api.NewRouter(api.Deps{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Log:      log,
		Auth:     authService,
		Tours:    tourService,
		Reviews:  reviewService,
		Users:    userRepo,
		Verifier: tokens,
		Limiter:  limiter,
		Repairer: dispatcher,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
