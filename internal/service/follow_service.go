package service

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/repository"
)

const (
	DefaultFollowListLimit = 20
	MaxFollowListLimit     = 50
)

// FollowService manages the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	onFollowed func(ctx context.Context, followerID, followingID uint)
}

// NewFollowService builds a FollowService. onFollowed may be nil; it fires
// only when a new edge is created.
func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	onFollowed func(ctx context.Context, followerID, followingID uint),
) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, onFollowed: onFollowed}
}

// Follow makes followerID follow followingID. Repeating it is a no-op.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) (bool, error) {
	if followerID == followingID {
		return false, models.NewValidationError("You cannot follow yourself")
	}
	exists, err := s.userRepo.Exists(ctx, followingID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, models.NewNotFoundError("User", followingID)
	}

	created, err := s.followRepo.Create(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}
	if created {
		cache.InvalidateFollow(ctx, followerID, followingID)
		if s.onFollowed != nil {
			s.onFollowed(ctx, followerID, followingID)
		}
	}
	return true, nil
}

// Unfollow removes the edge if present. Repeating it is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}
	if removed {
		cache.InvalidateFollow(ctx, followerID, followingID)
	}
	return false, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	if followerID == 0 || followerID == followingID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, followerID, followingID)
}

func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followRepo.FollowingIDs(ctx, userID)
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}

func (s *FollowService) FollowersCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, userID)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	limit, offset = normalizeFollowPage(limit, offset)
	return s.followRepo.ListFollowing(ctx, userID, limit, offset)
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	limit, offset = normalizeFollowPage(limit, offset)
	return s.followRepo.ListFollowers(ctx, userID, limit, offset)
}

func normalizeFollowPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultFollowListLimit
	}
	if limit > MaxFollowListLimit {
		limit = MaxFollowListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
