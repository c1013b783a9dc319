package handlers

import (
	"net/http"

	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/internal/middleware"
	"github.com/anonto42/board-service/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group, protected ...echo.MiddlewareFunc) {
	g.GET("/profile", h.GetProfile, protected...)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return errors.Unauthorized("Authentication required")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return errors.NotFound("User profile not found")
		}
		return errors.Internal("Database error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}
