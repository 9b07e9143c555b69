package service

import (
	"context"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedFixture is an in-memory post table for exercising cursor semantics.
type feedFixture struct {
	posts []*models.Post
}

func (f *feedFixture) repo() *postRepoStub {
	r := noopPostRepo()
	r.resolveCursorFn = func(_ context.Context, id uint, authors []uint) (*repository.PostCursor, error) {
		for _, p := range f.posts {
			if p.ID == id && (authors == nil || containsID(authors, p.UserID)) {
				return &repository.PostCursor{CreatedAt: p.CreatedAt, ID: p.ID}, nil
			}
		}
		return nil, nil
	}
	r.listByAuthorsFn = func(_ context.Context, authors []uint, limit int, after *repository.PostCursor) ([]*models.Post, error) {
		var out []*models.Post
		for _, p := range f.posts {
			if !containsID(authors, p.UserID) || !afterCursor(p, after) {
				continue
			}
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
		return out, nil
	}
	return r
}

// afterCursor reports whether p sorts after c in (created_at, id) DESC order.
func afterCursor(p *models.Post, c *repository.PostCursor) bool {
	if c == nil {
		return true
	}
	return p.CreatedAt.Before(c.CreatedAt) || (p.CreatedAt.Equal(c.CreatedAt) && p.ID < c.ID)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func postIDsOf(posts []*models.Post) []uint {
	out := make([]uint, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFeedService_FollowingFeed_Pages(t *testing.T) {
	t.Parallel()

	// newest first, as the store returns them
	fx := &feedFixture{posts: []*models.Post{
		{ID: 40, UserID: 9, CreatedAt: t0.Add(4 * time.Hour)}, // not followed
		{ID: 30, UserID: 2, CreatedAt: t0.Add(3 * time.Hour)}, // T1
		{ID: 20, UserID: 3, CreatedAt: t0.Add(2 * time.Hour)}, // T2
		{ID: 10, UserID: 2, CreatedAt: t0.Add(time.Hour)},     // T3
	}}
	followRepo := noopFollowRepo()
	followRepo.followingIDsFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{2, 3}, nil }

	svc := NewFeedService(followRepo, fx.repo())
	ctx := context.Background()

	page, err := svc.FollowingFeed(ctx, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{30, 20}, postIDsOf(page))

	page, err = svc.FollowingFeed(ctx, 1, 2, uintPtr(20))
	require.NoError(t, err)
	assert.Equal(t, []uint{10}, postIDsOf(page))

	page, err = svc.FollowingFeed(ctx, 1, 2, uintPtr(40))
	require.NoError(t, err)
	assert.Equal(t, []uint{30, 20}, postIDsOf(page), "non-followee cursor falls back to first page")

	page, err = svc.FollowingFeed(ctx, 1, 2, uintPtr(999))
	require.NoError(t, err)
	assert.Equal(t, []uint{30, 20}, postIDsOf(page), "unknown cursor falls back to first page")
}

func TestFeedService_FollowingFeed_TiedTimestamps(t *testing.T) {
	t.Parallel()

	fx := &feedFixture{posts: []*models.Post{
		{ID: 12, UserID: 2, CreatedAt: t0},
		{ID: 11, UserID: 3, CreatedAt: t0},
		{ID: 10, UserID: 2, CreatedAt: t0},
		{ID: 5, UserID: 3, CreatedAt: t0.Add(-time.Minute)},
	}}
	followRepo := noopFollowRepo()
	followRepo.followingIDsFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{2, 3}, nil }
	svc := NewFeedService(followRepo, fx.repo())

	var seen []uint
	var cursor *uint
	for {
		page, err := svc.FollowingFeed(context.Background(), 1, 2, cursor)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		seen = append(seen, postIDsOf(page)...)
		last := page[len(page)-1].ID
		cursor = &last
	}
	assert.Equal(t, []uint{12, 11, 10, 5}, seen)
}

func TestFeedService_FollowingFeed_EmptyFollowees(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.listByAuthorsFn = func(_ context.Context, _ []uint, _ int, _ *repository.PostCursor) ([]*models.Post, error) {
		t.Fatal("posts must not be queried without followees")
		return nil, nil
	}
	postRepo.resolveCursorFn = func(_ context.Context, _ uint, _ []uint) (*repository.PostCursor, error) {
		t.Fatal("cursor must not be resolved without followees")
		return nil, nil
	}

	svc := NewFeedService(noopFollowRepo(), postRepo)
	page, err := svc.FollowingFeed(context.Background(), 1, 10, uintPtr(5))
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestFeedService_FollowingFeed_ClampsLimitAndMarksLikes(t *testing.T) {
	t.Parallel()

	var gotLimit int
	followRepo := noopFollowRepo()
	followRepo.followingIDsFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{2}, nil }
	postRepo := noopPostRepo()
	postRepo.listByAuthorsFn = func(_ context.Context, _ []uint, limit int, _ *repository.PostCursor) ([]*models.Post, error) {
		gotLimit = limit
		return []*models.Post{{ID: 1, UserID: 2}, {ID: 2, UserID: 2}}, nil
	}
	postRepo.likedPostIDsFn = func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return []uint{2}, nil }

	svc := NewFeedService(followRepo, postRepo)

	page, err := svc.FollowingFeed(context.Background(), 1, 500, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxFeedLimit, gotLimit)
	assert.False(t, page[0].Liked)
	assert.True(t, page[1].Liked)

	_, err = svc.FollowingFeed(context.Background(), 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gotLimit)
}

func TestClampFeedLimit(t *testing.T) {
	assert.Equal(t, 1, ClampFeedLimit(-1))
	assert.Equal(t, 1, ClampFeedLimit(0))
	assert.Equal(t, 25, ClampFeedLimit(25))
	assert.Equal(t, 50, ClampFeedLimit(51))
}
