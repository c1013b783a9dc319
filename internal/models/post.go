package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the stored aggregate: a post with its comments and their replies,
// always loaded and saved as one MongoDB document.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Tags      []string           `bson:"tags"`
	AuthorID  string             `bson:"author"`
	Likes     []string           `bson:"likes"`
	Comments  []Comment          `bson:"comments"`
	Version   int64              `bson:"version"` // bumped on every save, used for compare-and-swap
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// LikeIndex returns the position of userID in Likes, or -1.
func (p *Post) LikeIndex(userID string) int {
	for i, id := range p.Likes {
		if id == userID {
			return i
		}
	}
	return -1
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (p *Post) CommentIndex(id primitive.ObjectID) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// AuthorIDs lists every distinct user id referenced as an author in the aggregate.
func (p *Post) AuthorIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	add(p.AuthorID)
	for _, c := range p.Comments {
		add(c.AuthorID)
		for _, r := range c.Replies {
			add(r.AuthorID)
		}
	}
	return ids
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (p *Post) Clone() *Post {
	out := *p
	out.Tags = append([]string(nil), p.Tags...)
	out.Likes = append([]string(nil), p.Likes...)
	if p.Comments != nil {
		out.Comments = make([]Comment, len(p.Comments))
		for i, c := range p.Comments {
			c.Replies = append([]Reply(nil), c.Replies...)
			out.Comments[i] = c
		}
	}
	return &out
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required,max=10000"`
	Tags    []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// UpdatePostRequest carries the fields to change. A nil field is left untouched.
type UpdatePostRequest struct {
	Title   *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content *string  `json:"content,omitempty" validate:"omitempty,min=1,max=10000"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
}
