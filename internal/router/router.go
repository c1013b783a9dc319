package router

import (
	"log/slog"

	"github.com/anonto42/board-service/backend/internal/handlers"
	"github.com/anonto42/board-service/backend/internal/middleware"
	"github.com/anonto42/board-service/backend/internal/ratelimit"
	"github.com/anonto42/board-service/backend/internal/repositories"
	"github.com/anonto42/board-service/backend/internal/services"
	"github.com/anonto42/board-service/backend/internal/validators"
	"github.com/anonto42/board-service/backend/pkg/config"
	"github.com/labstack/echo/v4"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger
	Posts  repositories.PostRepository
	Users  repositories.UserRepository

	// FirebaseAuth enables POST /api/users/firebase-login when set.
	FirebaseAuth handlers.TokenVerifier
	// Limiter throttles writes when set.
	Limiter *ratelimit.KeyedLimiter
}

// New builds a ready-to-start Echo instance: validator, error handler, global
// middleware and all routes.
func New(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(deps.Logger)

	config.SetupMiddleware(e, deps.Config, deps.Logger)
	SetupRoutes(e, deps)
	return e
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg, logger := deps.Config, deps.Logger

	e.GET("/", handlers.Welcome)
	e.GET("/health", handlers.HealthCheck)

	authenticate := middleware.JWTAuthMiddleware(cfg.JWTSecret)
	var limit []echo.MiddlewareFunc
	if deps.Limiter != nil {
		limit = append(limit, middleware.RateLimitMiddleware(deps.Limiter))
	}
	protected := append([]echo.MiddlewareFunc{authenticate}, limit...)

	// --- Users ---
	users := e.Group("/api/users")
	authHandler := handlers.NewAuthHandler(deps.Users, deps.FirebaseAuth, cfg.JWTSecret, cfg.JWTExpiry, logger)
	authHandler.RegisterAuthRoutes(users, limit...)
	handlers.NewUserHandler(deps.Users).RegisterProfileRoutes(users, authenticate)
	logger.Debug("user routes configured", "firebase_login", deps.FirebaseAuth != nil)

	// --- Posts ---
	postService := services.NewPostService(deps.Posts, deps.Users, logger,
		services.WithMaxAttempts(cfg.MutationMaxAttempts))

	posts := e.Group("/api/posts")
	handlers.NewPostHandler(postService).RegisterPostRoutes(posts, protected...)
	handlers.NewCommentHandler(postService).RegisterCommentRoutes(posts, protected...)
	handlers.NewLikeHandler(postService).RegisterLikeRoutes(posts, protected...)
	logger.Debug("post routes configured")
}
