package models

import "time"

// Author is how a user reference is shown to clients: the id plus the display name
// looked up at read time.
type Author struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// PostResponse is the author-resolved view of a Post returned by every post endpoint.
type PostResponse struct {
	ID        string            `json:"_id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Tags      []string          `json:"tags"`
	Author    Author            `json:"author"`
	Likes     []string          `json:"likes"`
	Comments  []CommentResponse `json:"comments"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type CommentResponse struct {
	ID        string          `json:"_id"`
	Content   string          `json:"content"`
	Author    Author          `json:"author"`
	Replies   []ReplyResponse `json:"replies"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ReplyResponse struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPostResponse builds the client view of p, resolving author ids through usernames.
// Ids missing from usernames keep an empty display name.
func NewPostResponse(p *Post, usernames map[string]string) PostResponse {
	author := func(id string) Author {
		return Author{ID: id, Username: usernames[id]}
	}

	resp := PostResponse{
		ID:        p.ID.Hex(),
		Title:     p.Title,
		Content:   p.Content,
		Tags:      nonNil(p.Tags),
		Author:    author(p.AuthorID),
		Likes:     nonNil(p.Likes),
		Comments:  make([]CommentResponse, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	for _, c := range p.Comments {
		cr := CommentResponse{
			ID:        c.ID.Hex(),
			Content:   c.Content,
			Author:    author(c.AuthorID),
			Replies:   make([]ReplyResponse, 0, len(c.Replies)),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		for _, r := range c.Replies {
			cr.Replies = append(cr.Replies, ReplyResponse{
				ID:        r.ID.Hex(),
				Content:   r.Content,
				Author:    author(r.AuthorID),
				CreatedAt: r.CreatedAt,
				UpdatedAt: r.UpdatedAt,
			})
		}
		resp.Comments = append(resp.Comments, cr)
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
