package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/internal/models"
	"github.com/anonto42/board-service/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgPostNotFound    = "Post not found"
	msgCommentNotFound = "Comment not found"
	msgReplyNotFound   = "Reply not found"
	msgNotAuthorized   = "Not authorized"
)

// PostService implements every post, comment, reply and like operation on top of a
// PostRepository. Mutations are read-modify-write cycles on the whole aggregate,
// retried when the stored version moved underneath them.
type PostService struct {
	posts       repositories.PostRepository
	users       repositories.UserRepository
	logger      *slog.Logger
	maxAttempts int
	now         func() time.Time
}

type PostServiceOption func(*PostService)

// WithMaxAttempts bounds how many times a mutation is retried after a version conflict.
func WithMaxAttempts(n int) PostServiceOption {
	return func(s *PostService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) PostServiceOption {
	return func(s *PostService) {
		s.now = now
	}
}

func NewPostService(posts repositories.PostRepository, users repositories.UserRepository, logger *slog.Logger, opts ...PostServiceOption) *PostService {
	s := &PostService{
		posts:       posts,
		users:       users,
		logger:      logger,
		maxAttempts: 5,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePost stores a new post authored by actor.
func (s *PostService) CreatePost(ctx context.Context, actor models.Actor, req models.CreatePostRequest) (*models.PostResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if isBlank(req.Title) {
		return nil, errors.Validation("Title is required")
	}
	if isBlank(req.Content) {
		return nil, errors.Validation("Content is required")
	}

	now := s.now()
	post := &models.Post{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      normalizeTags(req.Tags),
		AuthorID:  actor.UserID,
		Likes:     []string{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, errors.Internal("Error creating post", err)
	}
	s.logger.Info("post created", "post_id", post.ID.Hex(), "author", actor.UserID)
	return s.respond(ctx, post)
}

// ListPosts returns every post, newest first, with all authors resolved.
func (s *PostService) ListPosts(ctx context.Context) ([]models.PostResponse, error) {
	posts, err := s.posts.GetAllPosts(ctx)
	if err != nil {
		return nil, errors.Internal("Error fetching posts", err)
	}

	var ids []string
	for i := range posts {
		ids = append(ids, posts[i].AuthorIDs()...)
	}
	names, err := s.users.GetUsernames(ctx, ids)
	if err != nil {
		return nil, errors.Internal("Error fetching posts", err)
	}

	out := make([]models.PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, models.NewPostResponse(&posts[i], names))
	}
	return out, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.PostResponse, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, post)
}

// UpdatePost applies the supplied fields. Only the post's author may update it.
func (s *PostService) UpdatePost(ctx context.Context, id string, actor models.Actor, req models.UpdatePostRequest) (*models.PostResponse, error) {
	if req.Title != nil && isBlank(*req.Title) {
		return nil, errors.Validation("Title cannot be empty")
	}
	if req.Content != nil && isBlank(*req.Content) {
		return nil, errors.Validation("Content cannot be empty")
	}

	return s.mutate(ctx, id, actor, mutation{
		ownerOnly: true,
		apply: func(t *target, now time.Time) {
			if req.Title != nil {
				t.post.Title = *req.Title
			}
			if req.Content != nil {
				t.post.Content = *req.Content
			}
			if req.Tags != nil {
				t.post.Tags = normalizeTags(req.Tags)
			}
		},
	})
}

// DeletePost removes the post with all of its comments and replies.
func (s *PostService) DeletePost(ctx context.Context, id string, actor models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		post, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if post.AuthorID != actor.UserID {
			return errors.Forbidden(msgNotAuthorized)
		}

		err = s.posts.DeletePost(ctx, id, post.Version)
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.logger.Debug("post changed before delete, retrying", "post_id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return errors.Internal("Error deleting post", err)
		}
		s.logger.Info("post deleted", "post_id", id, "author", actor.UserID)
		return nil
	}
	return s.conflict(id)
}

func (s *PostService) AddComment(ctx context.Context, postID string, actor models.Actor, content string) (*models.PostResponse, error) {
	if isBlank(content) {
		return nil, errors.Validation("Content is required")
	}
	return s.mutate(ctx, postID, actor, mutation{
		apply: func(t *target, now time.Time) {
			t.post.Comments = append(t.post.Comments, models.Comment{
				ID:        primitive.NewObjectID(),
				Content:   content,
				AuthorID:  actor.UserID,
				Replies:   []models.Reply{},
				CreatedAt: now,
				UpdatedAt: now,
			})
		},
	})
}

func (s *PostService) EditComment(ctx context.Context, postID, commentID string, actor models.Actor, content string) (*models.PostResponse, error) {
	if isBlank(content) {
		return nil, errors.Validation("Content is required")
	}
	return s.mutate(ctx, postID, actor, mutation{
		at:        atComment,
		commentID: commentID,
		ownerOnly: true,
		apply: func(t *target, now time.Time) {
			c := t.Comment()
			c.Content = content
			c.UpdatedAt = now
		},
	})
}

// DeleteComment removes the comment and, with it, all of its replies.
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID string, actor models.Actor) (*models.PostResponse, error) {
	return s.mutate(ctx, postID, actor, mutation{
		at:        atComment,
		commentID: commentID,
		ownerOnly: true,
		apply: func(t *target, now time.Time) {
			t.post.Comments = slices.Delete(t.post.Comments, t.comment, t.comment+1)
		},
	})
}

func (s *PostService) AddReply(ctx context.Context, postID, commentID string, actor models.Actor, content string) (*models.PostResponse, error) {
	if isBlank(content) {
		return nil, errors.Validation("Content is required")
	}
	return s.mutate(ctx, postID, actor, mutation{
		at:        atComment,
		commentID: commentID,
		apply: func(t *target, now time.Time) {
			c := t.Comment()
			c.Replies = append(c.Replies, models.Reply{
				ID:        primitive.NewObjectID(),
				Content:   content,
				AuthorID:  actor.UserID,
				CreatedAt: now,
				UpdatedAt: now,
			})
		},
	})
}

func (s *PostService) EditReply(ctx context.Context, postID, commentID, replyID string, actor models.Actor, content string) (*models.PostResponse, error) {
	if isBlank(content) {
		return nil, errors.Validation("Content is required")
	}
	return s.mutate(ctx, postID, actor, mutation{
		at:        atReply,
		commentID: commentID,
		replyID:   replyID,
		ownerOnly: true,
		apply: func(t *target, now time.Time) {
			r := t.Reply()
			r.Content = content
			r.UpdatedAt = now
		},
	})
}

func (s *PostService) DeleteReply(ctx context.Context, postID, commentID, replyID string, actor models.Actor) (*models.PostResponse, error) {
	return s.mutate(ctx, postID, actor, mutation{
		at:        atReply,
		commentID: commentID,
		replyID:   replyID,
		ownerOnly: true,
		apply: func(t *target, now time.Time) {
			c := t.Comment()
			c.Replies = slices.Delete(c.Replies, t.reply, t.reply+1)
		},
	})
}

// ToggleLike adds actor to the post's likes, or removes them if already present.
func (s *PostService) ToggleLike(ctx context.Context, postID string, actor models.Actor) (*models.PostResponse, error) {
	return s.mutate(ctx, postID, actor, mutation{
		apply: func(t *target, now time.Time) {
			if i := t.post.LikeIndex(actor.UserID); i >= 0 {
				t.post.Likes = slices.Delete(t.post.Likes, i, i+1)
			} else {
				t.post.Likes = append(t.post.Likes, actor.UserID)
			}
		},
	})
}

// mutation is one change to a post aggregate: the entity it addresses, whether
// only that entity's author may make it, and the in-memory effect.
type mutation struct {
	at        level
	commentID string
	replyID   string
	ownerOnly bool
	apply     func(t *target, now time.Time)
}

// mutate runs load, locate, authorize, apply and save, starting over from a fresh
// load whenever the save loses a version race.
func (s *PostService) mutate(ctx context.Context, postID string, actor models.Actor, m mutation) (*models.PostResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		post, err := s.load(ctx, postID)
		if err != nil {
			return nil, err
		}
		t, err := locate(post, m.at, m.commentID, m.replyID)
		if err != nil {
			return nil, err
		}
		if m.ownerOnly && t.authorID() != actor.UserID {
			return nil, errors.Forbidden(msgNotAuthorized)
		}

		now := s.now()
		m.apply(t, now)
		post.UpdatedAt = now

		err = s.posts.ReplacePost(ctx, post)
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.logger.Debug("post changed during mutation, retrying", "post_id", postID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, errors.Internal("Error saving post", err)
		}
		return s.respond(ctx, post)
	}
	return nil, s.conflict(postID)
}

func (s *PostService) load(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, errors.NotFound(msgPostNotFound)
		}
		return nil, errors.Internal("Error fetching post", err)
	}
	return post, nil
}

func (s *PostService) respond(ctx context.Context, post *models.Post) (*models.PostResponse, error) {
	names, err := s.users.GetUsernames(ctx, post.AuthorIDs())
	if err != nil {
		return nil, errors.Internal("Error resolving authors", err)
	}
	resp := models.NewPostResponse(post, names)
	return &resp, nil
}

func (s *PostService) conflict(postID string) error {
	s.logger.Warn("giving up after repeated version conflicts", "post_id", postID, "attempts", s.maxAttempts)
	return errors.Conflict("Post was modified by another request, please retry")
}

func requireActor(actor models.Actor) error {
	if actor.UserID == "" {
		return errors.Unauthorized("Authentication required")
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
