package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	tooMany := make([]string, models.MaxMediaURLs+1)
	for i := range tooMany {
		tooMany[i] = "https://cdn.example.com/a.png"
	}

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{name: "blank content", input: CreatePostInput{UserID: 1, Content: "  \n"}},
		{name: "content too long", input: CreatePostInput{UserID: 1, Content: strings.Repeat("x", maxContentLen+1)}},
		{name: "too many media", input: CreatePostInput{UserID: 1, Content: "hi", MediaURLs: tooMany}},
		{name: "relative media url", input: CreatePostInput{UserID: 1, Content: "hi", MediaURLs: []string{"/a.png"}}},
		{name: "non http media url", input: CreatePostInput{UserID: 1, Content: "hi", MediaURLs: []string{"ftp://host/a.png"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			postRepo := noopPostRepo()
			postRepo.createFn = func(_ context.Context, _ *models.Post) error {
				t.Fatal("create must not run for invalid input")
				return nil
			}
			_, err := NewPostService(postRepo).CreatePost(context.Background(), tt.input)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_CreatePost_NormalizesInput(t *testing.T) {
	t.Parallel()

	var stored *models.Post
	postRepo := noopPostRepo()
	postRepo.createFn = func(_ context.Context, p *models.Post) error {
		stored = p
		p.ID = 5
		return nil
	}

	post, err := NewPostService(postRepo).CreatePost(context.Background(), CreatePostInput{
		UserID:    2,
		Content:   "  hello  ",
		MediaURLs: []string{"", " https://cdn.example.com/a.png "},
	})
	require.NoError(t, err)
	assert.Same(t, stored, post)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, post.MediaURLs)
	assert.Equal(t, uint(2), post.UserID)
}

func TestPostService_GetPost_MarksLiked(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.likedPostIDsFn = func(_ context.Context, userID uint, ids []uint) ([]uint, error) {
		assert.Equal(t, uint(9), userID)
		return ids, nil
	}
	svc := NewPostService(postRepo)

	post, err := svc.GetPost(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.True(t, post.Liked)

	postRepo.likedPostIDsFn = func(_ context.Context, _ uint, _ []uint) ([]uint, error) {
		t.Fatal("anonymous viewers have no likes to look up")
		return nil, nil
	}
	post, err = svc.GetPost(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.False(t, post.Liked)
}

func TestPostService_ListPosts_GlobalCursor(t *testing.T) {
	t.Parallel()

	cursorAt := t0.Add(time.Hour)
	var gotAfter *repository.PostCursor
	var gotLimit int
	postRepo := noopPostRepo()
	postRepo.resolveCursorFn = func(_ context.Context, id uint, authors []uint) (*repository.PostCursor, error) {
		assert.Nil(t, authors, "global timeline has no author filter")
		if id == 7 {
			return &repository.PostCursor{CreatedAt: cursorAt, ID: 7}, nil
		}
		return nil, nil
	}
	postRepo.listFn = func(_ context.Context, limit int, after *repository.PostCursor) ([]*models.Post, error) {
		gotLimit, gotAfter = limit, after
		return []*models.Post{}, nil
	}
	svc := NewPostService(postRepo)

	_, err := svc.ListPosts(context.Background(), 0, 0, uintPtr(7))
	require.NoError(t, err)
	require.NotNil(t, gotAfter)
	assert.True(t, cursorAt.Equal(gotAfter.CreatedAt))
	assert.Equal(t, uint(7), gotAfter.ID)
	assert.Equal(t, 1, gotLimit)

	_, err = svc.ListPosts(context.Background(), 0, 20, uintPtr(404))
	require.NoError(t, err)
	assert.Nil(t, gotAfter)
	assert.Equal(t, 20, gotLimit)
}
