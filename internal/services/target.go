package services

import (
	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// level is how deep into the aggregate a mutation reaches.
type level int

const (
	atPost level = iota
	atComment
	atReply
)

// target addresses one entity inside a loaded post: the post itself, one of its
// comments, or one reply of that comment.
type target struct {
	post    *models.Post
	comment int // -1 when the post itself is addressed
	reply   int // -1 unless a reply is addressed
}

// locate resolves the ids required by at against post. Empty and malformed ids
// are reported the same way as ids that match nothing.
func locate(post *models.Post, at level, commentID, replyID string) (*target, error) {
	t := &target{post: post, comment: -1, reply: -1}
	if at == atPost {
		return t, nil
	}

	if id, err := primitive.ObjectIDFromHex(commentID); err == nil {
		t.comment = post.CommentIndex(id)
	}
	if t.comment < 0 {
		return nil, errors.NotFound(msgCommentNotFound)
	}
	if at == atComment {
		return t, nil
	}

	if id, err := primitive.ObjectIDFromHex(replyID); err == nil {
		t.reply = t.Comment().ReplyIndex(id)
	}
	if t.reply < 0 {
		return nil, errors.NotFound(msgReplyNotFound)
	}
	return t, nil
}

func (t *target) Comment() *models.Comment {
	return &t.post.Comments[t.comment]
}

func (t *target) Reply() *models.Reply {
	return &t.Comment().Replies[t.reply]
}

// authorID is the author of the addressed entity.
func (t *target) authorID() string {
	switch {
	case t.reply >= 0:
		return t.Reply().AuthorID
	case t.comment >= 0:
		return t.Comment().AuthorID
	default:
		return t.post.AuthorID
	}
}
