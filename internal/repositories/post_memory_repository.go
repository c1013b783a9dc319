package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/anonto42/board-service/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryPostRepository keeps posts in process memory. Every load and save copies
// the aggregate, so callers never share state with the store or with each other.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*models.Post
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (r *MemoryPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post.ID = primitive.NewObjectID()
	post.Version = 1
	r.posts[post.ID] = post.Clone()
	return nil
}

func (r *MemoryPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPostNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[objID]
	if !ok {
		return nil, ErrPostNotFound
	}
	return post.Clone(), nil
}

func (r *MemoryPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	r.mu.RLock()
	posts := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, *p.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			// ObjectIDs grow with creation time, so this keeps same-instant posts newest first too.
			return posts[i].ID.Hex() > posts[j].ID.Hex()
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (r *MemoryPostRepository) ReplacePost(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[post.ID]
	if !ok || stored.Version != post.Version {
		return ErrVersionConflict
	}
	post.Version++
	r.posts[post.ID] = post.Clone()
	return nil
}

func (r *MemoryPostRepository) DeletePost(ctx context.Context, id string, version int64) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrPostNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[objID]
	if !ok || stored.Version != version {
		return ErrVersionConflict
	}
	delete(r.posts, objID)
	return nil
}

func (r *MemoryPostRepository) DeleteAllPosts(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.posts))
	r.posts = make(map[primitive.ObjectID]*models.Post)
	return n, nil
}
