package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func samplePost() *Post {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &Post{
		ID:       primitive.NewObjectID(),
		Title:    "Title",
		Content:  "Body",
		Tags:     []string{"go"},
		AuthorID: "alice",
		Likes:    []string{"bob"},
		Comments: []Comment{{
			ID:       primitive.NewObjectID(),
			Content:  "Comment",
			AuthorID: "bob",
			Replies: []Reply{
				{ID: primitive.NewObjectID(), Content: "Reply", AuthorID: "alice"},
				{ID: primitive.NewObjectID(), Content: "Reply 2", AuthorID: "carol"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}},
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPost_CloneIsDeep(t *testing.T) {
	p := samplePost()
	c := p.Clone()
	require.Equal(t, p, c)

	c.Tags[0] = "rust"
	c.Likes = append(c.Likes, "carol")
	c.Comments[0].Content = "changed"
	c.Comments[0].Replies[0].Content = "changed"

	assert.Equal(t, "go", p.Tags[0])
	assert.Equal(t, []string{"bob"}, p.Likes)
	assert.Equal(t, "Comment", p.Comments[0].Content)
	assert.Equal(t, "Reply", p.Comments[0].Replies[0].Content)
}

func TestPost_AuthorIDsAreDistinctInOrder(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob", "carol"}, samplePost().AuthorIDs())
}

func TestPost_Indexes(t *testing.T) {
	p := samplePost()
	assert.Equal(t, 0, p.LikeIndex("bob"))
	assert.Equal(t, -1, p.LikeIndex("alice"))
	assert.Equal(t, 0, p.CommentIndex(p.Comments[0].ID))
	assert.Equal(t, -1, p.CommentIndex(primitive.NewObjectID()))
	assert.Equal(t, 1, p.Comments[0].ReplyIndex(p.Comments[0].Replies[1].ID))
}

func TestNewPostResponse(t *testing.T) {
	p := samplePost()
	resp := NewPostResponse(p, map[string]string{"alice": "Alice", "bob": "Bob"})

	assert.Equal(t, p.ID.Hex(), resp.ID)
	assert.Equal(t, Author{ID: "alice", Username: "Alice"}, resp.Author)
	assert.Equal(t, Author{ID: "bob", Username: "Bob"}, resp.Comments[0].Author)
	assert.Equal(t, Author{ID: "carol"}, resp.Comments[0].Replies[1].Author, "unknown users keep an empty name")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Contains(t, body, "_id")
	assert.Contains(t, body, "createdAt")
	assert.NotContains(t, body, "version")
}

func TestNewPostResponse_EmptyCollectionsAreArrays(t *testing.T) {
	resp := NewPostResponse(&Post{ID: primitive.NewObjectID(), AuthorID: "alice"}, nil)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tags":[]`)
	assert.Contains(t, string(raw), `"likes":[]`)
	assert.Contains(t, string(raw), `"comments":[]`)
}
