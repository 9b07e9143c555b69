package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"murmur/internal/models"
	"murmur/internal/observability"
)

// CommentNode is one comment in a built thread.
type CommentNode struct {
	ID        uint
	PostID    uint
	UserID    uint
	ParentID  *uint
	Depth     int
	LikeCount int
	IsLiked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	State     models.CommentState
	Replies   []*CommentNode
}

// AuthorView is the public author block of a rendered post or comment.
// Contact fields are never part of it.
type AuthorView struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

// CommentView is the client-facing rendering of a CommentNode.
type CommentView struct {
	ID        uint          `json:"id"`
	PostID    uint          `json:"post_id"`
	ParentID  *uint         `json:"parent_id"`
	Depth     int           `json:"depth"`
	Content   string        `json:"content"`
	Author    AuthorView `json:"author"`
	LikeCount int           `json:"like_count"`
	IsLiked   bool          `json:"is_liked"`
	IsDeleted bool          `json:"is_deleted"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Replies   []CommentView `json:"replies"`
}

// Render converts the node and its subtree into views.
func (n *CommentNode) Render() CommentView {
	v := CommentView{
		ID:        n.ID,
		PostID:    n.PostID,
		ParentID:  n.ParentID,
		Depth:     n.Depth,
		LikeCount: n.LikeCount,
		IsLiked:   n.IsLiked,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Replies:   make([]CommentView, 0, len(n.Replies)),
	}

	switch st := n.State.(type) {
	case models.ActiveComment:
		v.Content = st.Content
		v.Author = authorOf(st.Author)
	case models.DeletedComment:
		v.Content = models.DeletedCommentPlaceholder
		v.IsDeleted = true
	}

	for _, r := range n.Replies {
		v.Replies = append(v.Replies, r.Render())
	}
	return v
}

// RenderThread renders a list of root nodes.
func RenderThread(roots []*CommentNode) []CommentView {
	out := make([]CommentView, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.Render())
	}
	return out
}

// buildThread links a flat, id-ordered comment list into a forest. Roots are
// ordered by likes then recency and cut to limit; replies are ordered
// oldest first and never cut.
func buildThread(ctx context.Context, comments []*models.Comment, liked map[uint]struct{}, limit int) []*CommentNode {
	nodes := make([]*CommentNode, 0, len(comments))
	index := make(map[uint]*CommentNode, len(comments))

	for _, c := range comments {
		_, isLiked := liked[c.ID]
		n := &CommentNode{
			ID:        c.ID,
			PostID:    c.PostID,
			UserID:    c.UserID,
			ParentID:  c.ParentID,
			Depth:     c.Depth,
			LikeCount: c.LikeCount,
			IsLiked:   isLiked,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			State:     c.State(),
		}
		nodes = append(nodes, n)
		index[c.ID] = n
	}

	roots := make([]*CommentNode, 0)
	for _, n := range nodes {
		if n.ParentID != nil {
			if parent, ok := index[*n.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		if n.Depth == 0 {
			roots = append(roots, n)
			continue
		}
		observability.Logger.DebugContext(ctx, "dropping orphan comment",
			slog.Uint64("comment_id", uint64(n.ID)),
			slog.Int("depth", n.Depth),
		)
	}

	for _, r := range roots {
		sortReplies(r)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].LikeCount != roots[j].LikeCount {
			return roots[i].LikeCount > roots[j].LikeCount
		}
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	if limit > 0 && len(roots) > limit {
		roots = roots[:limit]
	}
	return roots
}

func sortReplies(n *CommentNode) {
	sort.SliceStable(n.Replies, func(i, j int) bool {
		return n.Replies[i].CreatedAt.Before(n.Replies[j].CreatedAt)
	})
	for _, r := range n.Replies {
		sortReplies(r)
	}
}

// countNodes returns the size of the forest.
func countNodes(roots []*CommentNode) int {
	total := 0
	for _, r := range roots {
		total += 1 + countNodes(r.Replies)
	}
	return total
}
