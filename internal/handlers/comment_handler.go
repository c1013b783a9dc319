package handlers

import (
	"net/http"

	"github.com/anonto42/board-service/backend/internal/middleware"
	"github.com/anonto42/board-service/backend/internal/models"
	"github.com/anonto42/board-service/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comments and their replies. Every route answers with
// the whole updated post.
type CommentHandler struct {
	service *services.PostService
}

func NewCommentHandler(service *services.PostService) *CommentHandler {
	return &CommentHandler{service: service}
}

// RegisterCommentRoutes registers comment and reply routes under a post group.
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, protected ...echo.MiddlewareFunc) {
	g.POST("/:id/comments", h.AddComment, protected...)
	g.PUT("/:id/comments/:commentId", h.EditComment, protected...)
	g.DELETE("/:id/comments/:commentId", h.DeleteComment, protected...)

	g.POST("/:id/comments/:commentId/replies", h.AddReply, protected...)
	g.PUT("/:id/comments/:commentId/replies/:replyId", h.EditReply, protected...)
	g.DELETE("/:id/comments/:commentId/replies/:replyId", h.DeleteReply, protected...)
}

func (h *CommentHandler) AddComment(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	var req models.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.service.AddComment(c.Request().Context(), c.Param("id"), actor, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (h *CommentHandler) EditComment(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	var req models.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.service.EditComment(c.Request().Context(), c.Param("id"), c.Param("commentId"), actor, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	post, err := h.service.DeleteComment(c.Request().Context(), c.Param("id"), c.Param("commentId"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *CommentHandler) AddReply(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	var req models.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.service.AddReply(c.Request().Context(), c.Param("id"), c.Param("commentId"), actor, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (h *CommentHandler) EditReply(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	var req models.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.service.EditReply(c.Request().Context(), c.Param("id"), c.Param("commentId"), c.Param("replyId"), actor, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *CommentHandler) DeleteReply(c echo.Context) error {
	actor, _ := middleware.ActorFrom(c)

	post, err := h.service.DeleteReply(c.Request().Context(), c.Param("id"), c.Param("commentId"), c.Param("replyId"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
