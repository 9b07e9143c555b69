package service

import (
	"context"
	"errors"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultThreadLimit is the number of root comments returned when the
	// caller does not ask for a specific amount.
	DefaultThreadLimit = 20

	maxContentLen = validation.MaxContentLength
)

// CommentCreatedEvent describes a new comment and who should hear about it.
type CommentCreatedEvent struct {
	Comment        *models.Comment
	PostAuthorID   uint
	ParentAuthorID uint
}

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	onCreated   func(ctx context.Context, ev CommentCreatedEvent)
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	Content  string
	ParentID *uint
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

// NewCommentService builds a CommentService. onCreated may be nil.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	onCreated func(ctx context.Context, ev CommentCreatedEvent),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		onCreated:   onCreated,
	}
}

// NormalizeThreadLimit maps non-positive values to the default. Larger values
// pass through; request-size caps belong to the caller.
func NormalizeThreadLimit(limit int) int {
	if limit <= 0 {
		return DefaultThreadLimit
	}
	return limit
}

// BuildThread returns the comment forest of a post as seen by viewerID.
// viewerID 0 means anonymous: nothing is marked liked.
func (s *CommentService) BuildThread(ctx context.Context, postID, viewerID uint, limit int) (roots []*CommentNode, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "BuildThread",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked := map[uint]struct{}{}
	if viewerID != 0 {
		ids, err := s.commentRepo.LikedCommentIDs(ctx, viewerID, postID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			liked[id] = struct{}{}
		}
	}

	roots = buildThread(ctx, comments, liked, NormalizeThreadLimit(limit))
	observability.ThreadNodes.Observe(float64(len(comments)))
	return roots, nil
}

// AddComment creates a top-level comment or a reply.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: content,
	}

	var parentAuthorID uint
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if models.IsNotFound(err) {
				return nil, models.NewNotFoundMessage("Parent comment not found")
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewNotFoundMessage("Parent comment not found")
		}
		if parent.IsDeleted() {
			return nil, models.NewValidationError("Cannot reply to a deleted comment")
		}
		if parent.Depth >= models.MaxCommentDepth {
			return nil, models.NewValidationError("Maximum comment nesting depth exceeded")
		}
		comment.ParentID = &parent.ID
		comment.Depth = parent.Depth + 1
		parentAuthorID = parent.UserID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.onCreated != nil {
		s.onCreated(ctx, CommentCreatedEvent{
			Comment:        comment,
			PostAuthorID:   post.UserID,
			ParentAuthorID: parentAuthorID,
		})
	}
	return comment, nil
}

// DeleteComment soft-deletes a comment. The comment author and the post
// author may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.IsDeleted() {
		return models.NewNotFoundMessage("Comment already deleted")
	}

	if comment.UserID != in.UserID {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.UserID != in.UserID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}

	if err := s.commentRepo.SoftDelete(ctx, in.CommentID); err != nil {
		if errors.Is(err, repository.ErrCommentDeleted) {
			return models.NewNotFoundMessage("Comment already deleted")
		}
		return err
	}
	return nil
}

func validateContent(raw string) (string, error) {
	content, err := validation.Content(raw)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return content, nil
}
