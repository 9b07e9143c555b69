package repository

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines persistence for directed follow edges.
type FollowRepository interface {
	// Create inserts the edge. It reports false when the edge already existed.
	Create(ctx context.Context, followerID, followingID uint) (bool, error)
	// Delete removes the edge. It reports false when there was none.
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	if res.Error != nil {
		if IsForeignKeyViolation(res.Error) {
			return false, models.NewNotFoundError("User", followingID)
		}
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	defer observability.TrackQuery("following_ids", "follows")()

	ids := []uint{}
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "following_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, where string, userID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).Where(where, userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return r.list(ctx, "follows.following_id", "follows.follower_id = ?", userID, limit, offset)
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return r.list(ctx, "follows.follower_id", "follows.following_id = ?", userID, limit, offset)
}

func (r *followRepository) list(ctx context.Context, joinCol, where string, userID uint, limit, offset int) ([]models.UserSummary, error) {
	out := []models.UserSummary{}
	err := readDB(r.db).WithContext(ctx).
		Table("follows").
		Select("users.id, users.name, users.image, follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = "+joinCol).
		Where(where, userID).
		Order("follows.created_at DESC").
		Order("users.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
