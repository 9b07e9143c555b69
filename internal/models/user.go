// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account known to the service. Credentials live with the
// identity provider; this row only carries display and contact fields.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicUser is the profile shape shown to other users. Email is omitted.
type PublicUser struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Image          *string   `json:"image"`
	CreatedAt      time.Time `json:"created_at"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
}

// UserSummary is one entry of a following/followers list.
type UserSummary struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Image      *string   `json:"image"`
	FollowedAt time.Time `json:"followed_at"`
}
