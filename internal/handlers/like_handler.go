package handlers

import (
	"net/http"

	"github.com/anonto42/board-service/backend/internal/middleware"
	"github.com/anonto42/board-service/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	service *services.PostService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(service *services.PostService) *LikeHandler {
	return &LikeHandler{service: service}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, protected ...echo.MiddlewareFunc) {
	g.POST("/:id/like", h.ToggleLike, protected...)
}

// ToggleLike likes the post, or unlikes it when the caller already did
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	post, err := h.service.ToggleLike(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
