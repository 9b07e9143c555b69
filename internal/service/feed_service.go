package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50
)

// FeedService builds the following timeline.
type FeedService struct {
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
}

func NewFeedService(followRepo repository.FollowRepository, postRepo repository.PostRepository) *FeedService {
	return &FeedService{followRepo: followRepo, postRepo: postRepo}
}

// ClampFeedLimit bounds a page size to [1, MaxFeedLimit].
func ClampFeedLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// FollowingFeed returns the newest posts by the accounts userID follows.
//
// cursor is the id of the last post of the previous page. It is resolved
// only among followee posts; an id that does not resolve yields the first
// page rather than an error.
func (s *FeedService) FollowingFeed(ctx context.Context, userID uint, limit int, cursor *uint) (posts []*models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "FollowingFeed",
		attribute.Int64("user.id", int64(userID)))
	defer func() { observability.EndSpan(span, err) }()

	followingIDs, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(followingIDs) == 0 {
		return []*models.Post{}, nil
	}

	var after *repository.PostCursor
	if cursor != nil {
		after, err = s.postRepo.ResolveCursor(ctx, *cursor, followingIDs)
		if err != nil {
			return nil, err
		}
	}
	observability.RecordFeedPage("following", after != nil)

	posts, err = s.postRepo.ListByAuthors(ctx, followingIDs, ClampFeedLimit(limit), after)
	if err != nil {
		return nil, err
	}
	if err := markLikedPosts(ctx, s.postRepo, userID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// markLikedPosts sets Liked on the posts viewerID likes.
func markLikedPosts(ctx context.Context, postRepo repository.PostRepository, viewerID uint, posts []*models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	liked, err := postRepo.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	set := make(map[uint]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}
	for _, p := range posts {
		_, p.Liked = set[p.ID]
	}
	return nil
}
