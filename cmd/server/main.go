package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/board-service/backend/internal/ratelimit"
	"github.com/anonto42/board-service/backend/internal/repositories"
	"github.com/anonto42/board-service/backend/internal/router"
	"github.com/anonto42/board-service/backend/pkg/config"
	"github.com/anonto42/board-service/backend/pkg/firebase"
	"github.com/anonto42/board-service/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	deps := router.Dependencies{Config: cfg, Logger: log}

	var db *config.DB
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		deps.Posts = repositories.NewMemoryPostRepository()
		deps.Users = repositories.NewMemoryUserRepository()
	default:
		var err error
		db, err = config.InitDB(cfg, log)
		if err != nil {
			log.Error("failed to initialize databases", "error", err)
			os.Exit(1)
		}

		userRepo := repositories.NewPostgresUserRepository(db.Postgres)
		if err := userRepo.Migrate(); err != nil {
			log.Error("failed to migrate users table", "error", err)
			os.Exit(1)
		}

		postRepo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = postRepo.EnsureIndexes(ctx)
		cancel()
		if err != nil {
			log.Error("failed to create post indexes", "error", err)
			os.Exit(1)
		}

		deps.Posts, deps.Users = postRepo, userRepo
	}

	// Firebase is optional; without credentials only local accounts are available.
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Error("failed to initialize firebase", "error", err)
			os.Exit(1)
		}
		deps.FirebaseAuth = app.AuthClient
		log.Info("firebase login enabled")
	}

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	deps.Limiter = limiter

	e := router.New(deps)

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	limiter.Stop()
	if db != nil {
		db.CloseDB()
	}
}
