package repository

import (
	"context"

	"murmur/internal/models"
)

// LikedCommentIDs returns the ids of comments on postID that userID likes.
func (r *commentRepository) LikedCommentIDs(ctx context.Context, userID, postID uint) ([]uint, error) {
	if userID == 0 {
		return nil, nil
	}
	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.CommentLike{}).
		Joins("JOIN comments ON comments.id = comment_likes.comment_id").
		Where("comment_likes.user_id = ? AND comments.post_id = ?", userID, postID).
		Pluck("comment_likes.comment_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
