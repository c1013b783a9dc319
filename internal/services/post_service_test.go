package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/internal/models"
	"github.com/anonto42/board-service/backend/internal/repositories"
	"github.com/anonto42/board-service/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock advances one second per call so every mutation gets a distinct timestamp.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	svc   *PostService
	posts *repositories.MemoryPostRepository
	alice models.Actor
	bob   models.Actor
}

func newFixture(t *testing.T, opts ...PostServiceOption) *fixture {
	t.Helper()
	ctx := context.Background()
	users := repositories.NewMemoryUserRepository()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, users.CreateUser(ctx, alice))
	require.NoError(t, users.CreateUser(ctx, bob))

	clock := &tickingClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	posts := repositories.NewMemoryPostRepository()
	opts = append([]PostServiceOption{WithClock(clock.Now)}, opts...)

	return &fixture{
		svc:   NewPostService(posts, users, logger.Discard(), opts...),
		posts: posts,
		alice: models.Actor{UserID: alice.ID, Username: alice.Username},
		bob:   models.Actor{UserID: bob.ID, Username: bob.Username},
	}
}

func (f *fixture) createPost(t *testing.T, author models.Actor) *models.PostResponse {
	t.Helper()
	post, err := f.svc.CreatePost(context.Background(), author, models.CreatePostRequest{
		Title:   "T",
		Content: "C",
		Tags:    []string{"go"},
	})
	require.NoError(t, err)
	return post
}

func requireCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errors.CodeOf(err), "unexpected error: %v", err)
}

func TestPostService_CreateAndGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreatePost(ctx, f.alice, models.CreatePostRequest{
		Title:   "Hello",
		Content: "World",
		Tags:    []string{" go ", "", "web"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.Author{ID: f.alice.UserID, Username: "alice"}, created.Author)
	assert.Equal(t, []string{"go", "web"}, created.Tags)
	assert.Empty(t, created.Likes)
	assert.Empty(t, created.Comments)

	got, err := f.svc.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestPostService_CreatePostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePost(ctx, f.alice, models.CreatePostRequest{Title: "  ", Content: "C"})
	requireCode(t, err, errors.CodeValidation)

	_, err = f.svc.CreatePost(ctx, f.alice, models.CreatePostRequest{Title: "T", Content: ""})
	requireCode(t, err, errors.CodeValidation)

	_, err = f.svc.CreatePost(ctx, models.Actor{}, models.CreatePostRequest{Title: "T", Content: "C"})
	requireCode(t, err, errors.CodeUnauthorized)
}

func TestPostService_GetPostNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetPost(context.Background(), "65f000000000000000000000")
	requireCode(t, err, errors.CodeNotFound)
	assert.EqualError(t, err, "Post not found")

	_, err = f.svc.GetPost(context.Background(), "garbage")
	requireCode(t, err, errors.CodeNotFound)
}

func TestPostService_ListPostsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createPost(t, f.alice)
	second := f.createPost(t, f.bob)
	_, err := f.svc.AddComment(ctx, first.ID, f.bob, "hi")
	require.NoError(t, err)

	posts, err := f.svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, "bob", posts[0].Author.Username)
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Equal(t, "bob", posts[1].Comments[0].Author.Username)
}

func TestPostService_UpdatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)

	t.Run("omitted fields are kept", func(t *testing.T) {
		title := "New title"
		updated, err := f.svc.UpdatePost(ctx, post.ID, f.alice, models.UpdatePostRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
		assert.Equal(t, "C", updated.Content)
		assert.Equal(t, []string{"go"}, updated.Tags)
		assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
	})

	t.Run("explicit empty tags clear them", func(t *testing.T) {
		updated, err := f.svc.UpdatePost(ctx, post.ID, f.alice, models.UpdatePostRequest{Tags: []string{}})
		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
	})

	t.Run("blank title is rejected", func(t *testing.T) {
		blank := " "
		_, err := f.svc.UpdatePost(ctx, post.ID, f.alice, models.UpdatePostRequest{Title: &blank})
		requireCode(t, err, errors.CodeValidation)
	})

	t.Run("other user is forbidden and nothing changes", func(t *testing.T) {
		x := "x"
		_, err := f.svc.UpdatePost(ctx, post.ID, f.bob, models.UpdatePostRequest{Title: &x})
		requireCode(t, err, errors.CodeForbidden)
		assert.EqualError(t, err, "Not authorized")

		got, err := f.svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "New title", got.Title)
	})
}

func TestPostService_CommentThenReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, f.alice, models.CreatePostRequest{Title: "T", Content: "C", Tags: []string{}})
	require.NoError(t, err)

	withComment, err := f.svc.AddComment(ctx, post.ID, f.bob, "nice")
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	commentID := withComment.Comments[0].ID

	_, err = f.svc.AddReply(ctx, post.ID, commentID, f.alice, "thanks")
	require.NoError(t, err)

	got, err := f.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	comment := got.Comments[0]
	assert.Equal(t, "nice", comment.Content)
	assert.Equal(t, models.Author{ID: f.bob.UserID, Username: "bob"}, comment.Author)
	require.Len(t, comment.Replies, 1)
	assert.Equal(t, "thanks", comment.Replies[0].Content)
	assert.Equal(t, models.Author{ID: f.alice.UserID, Username: "alice"}, comment.Replies[0].Author)
}

func TestPostService_SiblingIDsAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)

	var resp *models.PostResponse
	var err error
	for i := 0; i < 5; i++ {
		resp, err = f.svc.AddComment(ctx, post.ID, f.bob, fmt.Sprintf("comment %d", i))
		require.NoError(t, err)
	}
	commentID := resp.Comments[0].ID
	for i := 0; i < 5; i++ {
		resp, err = f.svc.AddReply(ctx, post.ID, commentID, f.alice, fmt.Sprintf("reply %d", i))
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for i, c := range resp.Comments {
		assert.False(t, seen[c.ID], "duplicate comment id %s", c.ID)
		seen[c.ID] = true
		assert.Equal(t, fmt.Sprintf("comment %d", i), c.Content)
	}
	seen = map[string]bool{}
	for i, r := range resp.Comments[0].Replies {
		assert.False(t, seen[r.ID], "duplicate reply id %s", r.ID)
		seen[r.ID] = true
		assert.Equal(t, fmt.Sprintf("reply %d", i), r.Content)
	}
}

func TestPostService_EditAndDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)
	resp, err := f.svc.AddComment(ctx, post.ID, f.bob, "first")
	require.NoError(t, err)
	commentID := resp.Comments[0].ID

	edited, err := f.svc.EditComment(ctx, post.ID, commentID, f.bob, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Comments[0].Content)
	assert.True(t, edited.Comments[0].UpdatedAt.After(edited.Comments[0].CreatedAt))

	_, err = f.svc.AddReply(ctx, post.ID, commentID, f.alice, "a reply")
	require.NoError(t, err)

	afterDelete, err := f.svc.DeleteComment(ctx, post.ID, commentID, f.bob)
	require.NoError(t, err)
	assert.Empty(t, afterDelete.Comments)

	// The comment's replies went with it.
	_, err = f.svc.AddReply(ctx, post.ID, commentID, f.alice, "late")
	requireCode(t, err, errors.CodeNotFound)
	assert.EqualError(t, err, "Comment not found")
}

func TestPostService_EditAndDeleteReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)
	resp, err := f.svc.AddComment(ctx, post.ID, f.alice, "question")
	require.NoError(t, err)
	commentID := resp.Comments[0].ID
	resp, err = f.svc.AddReply(ctx, post.ID, commentID, f.bob, "answer")
	require.NoError(t, err)
	replyID := resp.Comments[0].Replies[0].ID

	edited, err := f.svc.EditReply(ctx, post.ID, commentID, replyID, f.bob, "better answer")
	require.NoError(t, err)
	assert.Equal(t, "better answer", edited.Comments[0].Replies[0].Content)

	deleted, err := f.svc.DeleteReply(ctx, post.ID, commentID, replyID, f.bob)
	require.NoError(t, err)
	assert.Empty(t, deleted.Comments[0].Replies)
	assert.Equal(t, "question", deleted.Comments[0].Content)

	_, err = f.svc.EditReply(ctx, post.ID, commentID, replyID, f.bob, "again")
	requireCode(t, err, errors.CodeNotFound)
	assert.EqualError(t, err, "Reply not found")
}

func TestPostService_ReplyUnderAnotherComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)
	_, err := f.svc.AddComment(ctx, post.ID, f.bob, "first")
	require.NoError(t, err)
	resp, err := f.svc.AddComment(ctx, post.ID, f.bob, "second")
	require.NoError(t, err)
	firstID, secondID := resp.Comments[0].ID, resp.Comments[1].ID
	before, err := f.svc.AddReply(ctx, post.ID, firstID, f.bob, "reply to first")
	require.NoError(t, err)
	replyID := before.Comments[0].Replies[0].ID

	_, err = f.svc.EditReply(ctx, post.ID, secondID, replyID, f.bob, "moved")
	requireCode(t, err, errors.CodeNotFound)
	assert.EqualError(t, err, "Reply not found")

	_, err = f.svc.DeleteReply(ctx, post.ID, secondID, replyID, f.bob)
	requireCode(t, err, errors.CodeNotFound)
	assert.EqualError(t, err, "Reply not found")

	after, err := f.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPostService_EmptyChildIDsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)
	before, err := f.svc.AddComment(ctx, post.ID, f.bob, "comment")
	require.NoError(t, err)
	commentID := before.Comments[0].ID

	tests := []struct {
		name    string
		call    func() error
		wantMsg string
	}{
		{"edit comment", func() error {
			_, err := f.svc.EditComment(ctx, post.ID, "", f.bob, "x")
			return err
		}, "Comment not found"},
		{"delete comment", func() error {
			_, err := f.svc.DeleteComment(ctx, post.ID, "", f.bob)
			return err
		}, "Comment not found"},
		{"add reply", func() error {
			_, err := f.svc.AddReply(ctx, post.ID, "", f.alice, "x")
			return err
		}, "Comment not found"},
		{"edit reply without comment", func() error {
			_, err := f.svc.EditReply(ctx, post.ID, "", "", f.bob, "x")
			return err
		}, "Comment not found"},
		{"edit reply", func() error {
			_, err := f.svc.EditReply(ctx, post.ID, commentID, "", f.bob, "x")
			return err
		}, "Reply not found"},
		{"delete reply", func() error {
			_, err := f.svc.DeleteReply(ctx, post.ID, commentID, "", f.bob)
			return err
		}, "Reply not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { err = tt.call() })
			requireCode(t, err, errors.CodeNotFound)
			assert.EqualError(t, err, tt.wantMsg)

			after, err := f.svc.GetPost(ctx, post.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestPostService_AuthorshipEnforcement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// alice owns the post, bob owns the comment and the reply.
	post := f.createPost(t, f.alice)
	resp, err := f.svc.AddComment(ctx, post.ID, f.bob, "bob's comment")
	require.NoError(t, err)
	commentID := resp.Comments[0].ID
	resp, err = f.svc.AddReply(ctx, post.ID, commentID, f.bob, "bob's reply")
	require.NoError(t, err)
	replyID := resp.Comments[0].Replies[0].ID
	before := resp

	title := "hijacked"
	tests := []struct {
		name string
		call func() error
	}{
		{"bob updates alice's post", func() error {
			_, err := f.svc.UpdatePost(ctx, post.ID, f.bob, models.UpdatePostRequest{Title: &title})
			return err
		}},
		{"bob deletes alice's post", func() error {
			return f.svc.DeletePost(ctx, post.ID, f.bob)
		}},
		{"post author edits bob's comment", func() error {
			_, err := f.svc.EditComment(ctx, post.ID, commentID, f.alice, "x")
			return err
		}},
		{"post author deletes bob's comment", func() error {
			_, err := f.svc.DeleteComment(ctx, post.ID, commentID, f.alice)
			return err
		}},
		{"post author edits bob's reply", func() error {
			_, err := f.svc.EditReply(ctx, post.ID, commentID, replyID, f.alice, "x")
			return err
		}},
		{"post author deletes bob's reply", func() error {
			_, err := f.svc.DeleteReply(ctx, post.ID, commentID, replyID, f.alice)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			requireCode(t, err, errors.CodeForbidden)
			assert.ErrorIs(t, err, errors.ErrForbidden)

			after, err := f.svc.GetPost(ctx, post.ID)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)

	liked, err := f.svc.ToggleLike(ctx, post.ID, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.UserID}, liked.Likes)
	assert.True(t, liked.UpdatedAt.After(post.UpdatedAt))

	unliked, err := f.svc.ToggleLike(ctx, post.ID, f.bob)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	_, err = f.svc.ToggleLike(ctx, "65f000000000000000000000", f.bob)
	requireCode(t, err, errors.CodeNotFound)
}

func TestPostService_DeleteMissingCommentLeavesPostUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)

	_, err := f.svc.DeleteComment(ctx, post.ID, "nonexistent", f.alice)
	requireCode(t, err, errors.CodeNotFound)
	assert.EqualError(t, err, "Comment not found")

	stored, err := f.posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.True(t, stored.UpdatedAt.Equal(post.UpdatedAt))
}

func TestPostService_DeletePostCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)
	resp, err := f.svc.AddComment(ctx, post.ID, f.bob, "c")
	require.NoError(t, err)
	commentID := resp.Comments[0].ID

	require.NoError(t, f.svc.DeletePost(ctx, post.ID, f.alice))

	_, err = f.svc.GetPost(ctx, post.ID)
	requireCode(t, err, errors.CodeNotFound)
	_, err = f.svc.EditComment(ctx, post.ID, commentID, f.bob, "x")
	requireCode(t, err, errors.CodeNotFound)
	err = f.svc.DeletePost(ctx, post.ID, f.alice)
	requireCode(t, err, errors.CodeNotFound)
}

func TestPostService_ConcurrentMutationsAreNotLost(t *testing.T) {
	const writers = 8
	// Nine writers in total; each can lose at most eight races.
	f := newFixture(t, WithMaxAttempts(writers+1))
	ctx := context.Background()
	post := f.createPost(t, f.alice)

	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddComment(ctx, post.ID, f.bob, fmt.Sprintf("comment %d", i))
			errs <- err
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.svc.ToggleLike(ctx, post.ID, f.bob)
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, writers)
	assert.Equal(t, []string{f.bob.UserID}, got.Likes)
}

// conflictingRepo loses every version race.
type conflictingRepo struct {
	*repositories.MemoryPostRepository
	replaceCalls int
}

func (r *conflictingRepo) ReplacePost(ctx context.Context, post *models.Post) error {
	r.replaceCalls++
	return repositories.ErrVersionConflict
}

func TestPostService_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, WithMaxAttempts(3))
	repo := &conflictingRepo{MemoryPostRepository: f.posts}
	f.svc.posts = repo
	post := f.createPost(t, f.alice)

	_, err := f.svc.ToggleLike(context.Background(), post.ID, f.bob)
	requireCode(t, err, errors.CodeConflict)
	assert.ErrorIs(t, err, errors.ErrConflict)
	assert.Equal(t, 3, repo.replaceCalls)
}

// brokenRepo fails every write.
type brokenRepo struct {
	*repositories.MemoryPostRepository
}

func (r *brokenRepo) ReplacePost(ctx context.Context, post *models.Post) error {
	return errors.New("connection reset")
}

func TestPostService_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	post := f.createPost(t, f.alice)
	f.svc.posts = &brokenRepo{MemoryPostRepository: f.posts}

	_, err := f.svc.AddComment(context.Background(), post.ID, f.bob, "hello")
	requireCode(t, err, errors.CodeInternal)
	assert.ErrorIs(t, err, errors.ErrInternal)
	assert.Equal(t, "Error saving post", err.(*errors.Error).Message)
}

func TestPostService_BlankContentIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice)

	_, err := f.svc.AddComment(ctx, post.ID, f.bob, "   ")
	requireCode(t, err, errors.CodeValidation)

	resp, err := f.svc.AddComment(ctx, post.ID, f.bob, "ok")
	require.NoError(t, err)
	_, err = f.svc.AddReply(ctx, post.ID, resp.Comments[0].ID, f.alice, "")
	requireCode(t, err, errors.CodeValidation)
}
