package service

import (
	"context"
	"errors"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
)

// LikeService toggles likes on comments and posts.
type LikeService struct {
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewLikeService(
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
) *LikeService {
	return &LikeService{likeRepo: likeRepo, commentRepo: commentRepo, postRepo: postRepo}
}

// ToggleCommentLike flips userID's like on a comment and reports the new state.
func (s *LikeService) ToggleCommentLike(ctx context.Context, userID, commentID uint) (bool, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return false, err
	}
	if comment.IsDeleted() {
		return false, models.NewValidationError("Cannot like a deleted comment")
	}

	liked, err := s.likeRepo.ToggleCommentLike(ctx, userID, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentDeleted) {
			return false, models.NewValidationError("Cannot like a deleted comment")
		}
		return false, err
	}
	observability.RecordLikeToggle("comment", liked)
	return liked, nil
}

// TogglePostLike flips userID's like on a post and reports the new state.
func (s *LikeService) TogglePostLike(ctx context.Context, userID, postID uint) (bool, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return false, err
	}

	liked, err := s.likeRepo.TogglePostLike(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	observability.RecordLikeToggle("post", liked)
	return liked, nil
}
