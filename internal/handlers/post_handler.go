package handlers

import (
	"net/http"

	"github.com/anonto42/board-service/backend/internal/middleware"
	"github.com/anonto42/board-service/backend/internal/models"
	"github.com/anonto42/board-service/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	service *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// RegisterPostRoutes registers post routes on g. Reads are public; writes run
// behind the given middleware.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, protected ...echo.MiddlewareFunc) {
	g.GET("", h.GetPosts)
	g.GET("/:id", h.GetPost)
	g.POST("", h.CreatePost, protected...)
	g.PUT("/:id", h.UpdatePost, protected...)
	g.DELETE("/:id", h.DeletePost, protected...)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	var req models.CreatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.service.CreatePost(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPosts lists every post, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.service.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.service.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	var req models.UpdatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.service.UpdatePost(c.Request().Context(), c.Param("id"), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post together with its comments and replies
func (h *PostHandler) DeletePost(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	if err := h.service.DeletePost(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}
