package service

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/repository"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

// followCounts is the cached pair of graph counters for one user.
type followCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo}
}

// GetMe returns the full record of the authenticated user.
func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// GetPublicProfile returns userID's profile as seen by viewerID.
func (s *UserService) GetPublicProfile(ctx context.Context, viewerID, userID uint) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var counts followCounts
	err = cache.CacheAside(ctx, cache.FollowCountsKey(userID), &counts, cache.FollowCountsTTL, func() error {
		var err error
		if counts.Followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
			return err
		}
		counts.Following, err = s.followRepo.CountFollowing(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	profile := &models.PublicUser{
		ID:             user.ID,
		Name:           user.Name,
		Image:          user.Image,
		CreatedAt:      user.CreatedAt,
		FollowerCount:  counts.Followers,
		FollowingCount: counts.Following,
	}
	if viewerID != 0 && viewerID != userID {
		if profile.IsFollowing, err = s.followRepo.Exists(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}
