package models

import "time"

// MaxCommentDepth is the deepest level a reply may sit at (levels 0..4).
const MaxCommentDepth = 4

// DeletedCommentPlaceholder replaces the content of soft-deleted comments.
const DeletedCommentPlaceholder = "This comment has been deleted"

// Comment represents a comment or reply on a post.
//
// DeletedAt is a plain nullable column rather than gorm.DeletedAt: deleted
// comments stay in thread reads so their replies remain attached.
type Comment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PostID    uint       `gorm:"not null;index" json:"post_id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ParentID  *uint      `gorm:"index" json:"parent_id"`
	Depth     int        `gorm:"not null;default:0" json:"depth"`
	LikeCount int        `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

// IsDeleted reports whether the comment was soft-deleted.
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CommentLike records that a user liked a comment.
type CommentLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CommentID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentState is the lifecycle state of a comment: ActiveComment or DeletedComment.
type CommentState interface {
	commentState()
}

// ActiveComment is a live comment with its content and author.
type ActiveComment struct {
	Content string
	Author  User
}

// DeletedComment is a soft-deleted comment. Content and author are gone.
type DeletedComment struct {
	At time.Time
}

func (ActiveComment) commentState()  {}
func (DeletedComment) commentState() {}

// State returns the tagged lifecycle state of the comment.
func (c *Comment) State() CommentState {
	if c.DeletedAt != nil {
		return DeletedComment{At: *c.DeletedAt}
	}
	return ActiveComment{Content: c.Content, Author: c.User}
}
