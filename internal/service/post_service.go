package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	UserID    uint
	Content   string
	MediaURLs []string
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}

	media, err := validateMediaURLs(in.MediaURLs)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:    in.UserID,
		Content:   content,
		MediaURLs: media,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post annotated for viewerID.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := markLikedPosts(ctx, s.postRepo, viewerID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts is the global timeline. Cursor semantics match the following
// feed without the author filter.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, limit int, cursor *uint) ([]*models.Post, error) {
	var after *repository.PostCursor
	if cursor != nil {
		var err error
		after, err = s.postRepo.ResolveCursor(ctx, *cursor, nil)
		if err != nil {
			return nil, err
		}
	}
	observability.RecordFeedPage("global", after != nil)

	posts, err := s.postRepo.List(ctx, ClampFeedLimit(limit), after)
	if err != nil {
		return nil, err
	}
	if err := markLikedPosts(ctx, s.postRepo, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func validateMediaURLs(raw []string) ([]string, error) {
	media, err := validation.MediaURLs(raw, models.MaxMediaURLs)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return media, nil
}
