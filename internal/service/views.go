package service

import (
	"time"

	"murmur/internal/models"
)

// PostView is the client-facing rendering of a post.
type PostView struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	Author    AuthorView `json:"author"`
	Content   string     `json:"content"`
	MediaURLs []string   `json:"media_urls,omitempty"`
	LikeCount int        `json:"like_count"`
	Liked     bool       `json:"liked"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func authorOf(u models.User) AuthorView {
	return AuthorView{ID: u.ID, Name: u.Name, Image: u.Image}
}

// NewPostView renders p with only the author's display fields.
func NewPostView(p *models.Post) PostView {
	return PostView{
		ID:        p.ID,
		UserID:    p.UserID,
		Author:    authorOf(p.User),
		Content:   p.Content,
		MediaURLs: p.MediaURLs,
		LikeCount: p.LikeCount,
		Liked:     p.Liked,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewPostViews renders a page of posts. The result is never nil.
func NewPostViews(posts []*models.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostView(p))
	}
	return out
}

// NewCommentView renders a single comment without its replies.
func NewCommentView(c *models.Comment) CommentView {
	n := CommentNode{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		ParentID:  c.ParentID,
		Depth:     c.Depth,
		LikeCount: c.LikeCount,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		State:     c.State(),
	}
	return n.Render()
}
