package server

import (
	"context"
	"log/slog"

	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/service"
)

// publishUserEvent routes ev to userID. With redis the event goes through
// pub/sub so every instance's hub sees it; without it only local sockets get it.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, ev notifications.Event) {
	if userID == 0 {
		return
	}

	if s.notifier != nil {
		if err := s.notifier.PublishEvent(ctx, userID, ev); err != nil {
			observability.Logger.WarnContext(ctx, "failed to publish event",
				slog.String("event", ev.Type),
				slog.Uint64("recipient", uint64(userID)),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	payload, err := ev.Encode()
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to encode event", slog.String("error", err.Error()))
		return
	}
	s.hub.Deliver(userID, payload)
}

func (s *Server) onCommentCreated(ctx context.Context, ev service.CommentCreatedEvent) {
	author := ev.Comment.UserID
	payload := map[string]any{
		"comment_id": ev.Comment.ID,
		"post_id":    ev.Comment.PostID,
		"parent_id":  ev.Comment.ParentID,
		"user_id":    author,
		"name":       ev.Comment.User.Name,
		"content":    ev.Comment.Content,
	}

	if ev.PostAuthorID != author {
		s.publishUserEvent(ctx, ev.PostAuthorID, notifications.Event{
			Type:    notifications.EventCommentCreated,
			Payload: payload,
		})
	}
	// Parent author may also own the post; one notification is enough.
	if ev.ParentAuthorID != 0 && ev.ParentAuthorID != author && ev.ParentAuthorID != ev.PostAuthorID {
		s.publishUserEvent(ctx, ev.ParentAuthorID, notifications.Event{
			Type:    notifications.EventCommentReply,
			Payload: payload,
		})
	}
}

func (s *Server) onFollowed(ctx context.Context, followerID, followingID uint) {
	s.publishUserEvent(ctx, followingID, notifications.Event{
		Type:    notifications.EventNewFollower,
		Payload: map[string]any{"follower_id": followerID},
	})
}
