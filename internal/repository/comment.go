package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByPost returns every comment of a post, deleted ones included,
	// with authors preloaded and in id order.
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	// SoftDelete redacts a live comment and drops its likes. It returns
	// ErrCommentDeleted if the comment was already deleted.
	SoftDelete(ctx context.Context, id uint) error
	LikedCommentIDs(ctx context.Context, userID, postID uint) ([]uint, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		if IsForeignKeyViolation(err) {
			return models.NewNotFoundError("Post", comment.PostID)
		}
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(comment, comment.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_by_post", "comments")()

	var comments []*models.Comment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Comment{}).
			Where("id = ? AND deleted_at IS NULL", id).
			UpdateColumns(map[string]any{
				"deleted_at": now,
				"content":    "",
				"like_count": 0,
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("soft delete comment %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCommentDeleted
		}

		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error; err != nil {
			return fmt.Errorf("clear likes of comment %d: %w", id, err)
		}
		return nil
	})
}
