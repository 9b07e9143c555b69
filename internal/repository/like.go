package repository

import (
	"context"
	"errors"
	"fmt"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNoTarget = errors.New("like target missing")

const decrementLikeCount = "CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END"

// LikeRepository flips like rows and keeps the denormalized like_count in
// step. Each toggle is one transaction using relative counter updates.
type LikeRepository interface {
	ToggleCommentLike(ctx context.Context, userID, commentID uint) (bool, error)
	TogglePostLike(ctx context.Context, userID, postID uint) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// toggleSpec describes one like table and the counter column it feeds.
type toggleSpec struct {
	table      string
	like       any
	where      string
	target     any
	targetLive string
}

func (r *likeRepository) ToggleCommentLike(ctx context.Context, userID, commentID uint) (bool, error) {
	liked, err := r.toggle(ctx, userID, commentID, toggleSpec{
		table:      "comment_likes",
		like:       &models.CommentLike{UserID: userID, CommentID: commentID},
		where:      "user_id = ? AND comment_id = ?",
		target:     &models.Comment{},
		targetLive: "id = ? AND deleted_at IS NULL",
	})
	if errors.Is(err, errNoTarget) {
		return false, ErrCommentDeleted
	}
	return liked, err
}

func (r *likeRepository) TogglePostLike(ctx context.Context, userID, postID uint) (bool, error) {
	liked, err := r.toggle(ctx, userID, postID, toggleSpec{
		table:      "post_likes",
		like:       &models.PostLike{UserID: userID, PostID: postID},
		where:      "user_id = ? AND post_id = ?",
		target:     &models.Post{},
		targetLive: "id = ?",
	})
	if errors.Is(err, errNoTarget) {
		return false, models.NewNotFoundError("Post", postID)
	}
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return liked, err
}

func (r *likeRepository) toggle(ctx context.Context, userID, targetID uint, kind toggleSpec) (bool, error) {
	defer observability.TrackQuery("toggle_like", kind.table)()

	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where(kind.where, userID, targetID).Delete(kind.like)
		if del.Error != nil {
			return fmt.Errorf("delete like: %w", del.Error)
		}

		if del.RowsAffected > 0 {
			upd := tx.Model(kind.target).Where(kind.targetLive, targetID).
				UpdateColumn("like_count", gorm.Expr(decrementLikeCount))
			if upd.Error != nil {
				return fmt.Errorf("decrement like count: %w", upd.Error)
			}
			if upd.RowsAffected == 0 {
				return errNoTarget
			}
			liked = false
			return nil
		}

		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(kind.like)
		if ins.Error != nil {
			if IsForeignKeyViolation(ins.Error) {
				return errNoTarget
			}
			return fmt.Errorf("insert like: %w", ins.Error)
		}
		liked = true
		if ins.RowsAffected == 0 {
			// A concurrent toggle inserted the same row and owns the increment.
			return nil
		}

		upd := tx.Model(kind.target).Where(kind.targetLive, targetID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		if upd.Error != nil {
			return fmt.Errorf("increment like count: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return errNoTarget
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoTarget) {
			return false, err
		}
		return false, models.NewInternalError(err)
	}
	return liked, nil
}
