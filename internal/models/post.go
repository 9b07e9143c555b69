package models

import "time"

// MaxMediaURLs bounds how many attachments a single post may reference.
const MaxMediaURLs = 10

// Post represents a post in the Murmur application.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	MediaURLs []string  `gorm:"type:text;serializer:json" json:"media_urls,omitempty"`
	LikeCount int       `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Liked is computed per viewer and never stored.
	Liked bool `gorm:"-" json:"liked"`
}

// PostLike records that a user liked a post. Row existence is the source of
// truth; Post.LikeCount caches the number of rows.
type PostLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
