// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// ResolveCursor returns the keyset position of postID. When authorIDs is
	// non-nil the lookup is restricted to those authors. Returns nil when
	// unresolved.
	ResolveCursor(ctx context.Context, postID uint, authorIDs []uint) (*PostCursor, error)
	List(ctx context.Context, limit int, after *PostCursor) ([]*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit int, after *PostCursor) ([]*models.Post, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
}

// PostCursor is the (created_at, id) position of the last post of a page.
type PostCursor struct {
	CreatedAt time.Time
	ID        uint
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		if IsForeignKeyViolation(err) {
			return models.NewNotFoundError("User", post.UserID)
		}
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(post, post.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.CacheAside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ResolveCursor(ctx context.Context, postID uint, authorIDs []uint) (*PostCursor, error) {
	if authorIDs != nil && len(authorIDs) == 0 {
		return nil, nil
	}

	q := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Select("id", "created_at").Where("id = ?", postID)
	if authorIDs != nil {
		q = q.Where("user_id IN ?", authorIDs)
	}

	var row models.Post
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &PostCursor{CreatedAt: row.CreatedAt, ID: row.ID}, nil
}

func (r *postRepository) List(ctx context.Context, limit int, after *PostCursor) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	var posts []*models.Post
	if err := r.page(ctx, limit, after).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, after *PostCursor) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}
	defer observability.TrackQuery("list_by_authors", "posts")()

	var posts []*models.Post
	if err := r.page(ctx, limit, after).Where("user_id IN ?", authorIDs).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// page is the shared keyset scan: newest first, id breaks createdAt ties.
// Rows sharing the cursor's createdAt are continued by id, not skipped.
func (r *postRepository) page(ctx context.Context, limit int, after *PostCursor) *gorm.DB {
	q := readDB(r.db).WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if after != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}
	return q
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}
