package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	PostKeyPrefix         = "post:%d"
	FollowCountsKeyPrefix = "user:%d:follow_counts"
)

const (
	UserTTL         = 5 * time.Minute
	PostTTL         = 30 * time.Minute
	FollowCountsTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FollowCountsKey(userID uint) string {
	return fmt.Sprintf(FollowCountsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), FollowCountsKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidateFollow drops the cached counts of both ends of a follow edge.
func InvalidateFollow(ctx context.Context, followerID, followingID uint) {
	Invalidate(ctx, FollowCountsKey(followerID), FollowCountsKey(followingID))
}
