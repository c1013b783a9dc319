package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in a Post and owns its replies.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id"`
	Content   string             `bson:"content"`
	AuthorID  string             `bson:"author"`
	Replies   []Reply            `bson:"replies"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// Reply is embedded in a Comment. Replies cannot be nested further.
type Reply struct {
	ID        primitive.ObjectID `bson:"_id"`
	Content   string             `bson:"content"`
	AuthorID  string             `bson:"author"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// ReplyIndex returns the position of the reply with the given id, or -1.
func (c *Comment) ReplyIndex(id primitive.ObjectID) int {
	for i := range c.Replies {
		if c.Replies[i].ID == id {
			return i
		}
	}
	return -1
}

// CommentRequest is the body for creating or editing a comment or a reply.
type CommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}
