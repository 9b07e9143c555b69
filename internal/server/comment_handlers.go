package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// maxThreadLimit caps root comments per request on GET /api/posts/:id/comments.
const maxThreadLimit = 100

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parentId"`
}

// GetComments handles GET /api/posts/:id/comments
// @Summary Comment thread
// @Description Top-level comments ordered by likes then recency; replies nested oldest first. limit applies to top-level comments only.
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param limit query int false "Top-level comments to return (default 20, max 100)"
// @Success 200 {array} service.CommentView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	limit := c.QueryInt("limit", service.DefaultThreadLimit)
	if limit > maxThreadLimit {
		limit = maxThreadLimit
	}

	roots, err := s.commentService.BuildThread(c.UserContext(), postID, s.optionalUserID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(service.RenderThread(roots))
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment or reply
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body createCommentRequest true "Comment body"
// @Success 201 {object} service.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.AddComment(c.UserContext(), service.CreateCommentInput{
		UserID:   currentUserID(c),
		PostID:   postID,
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(service.NewCommentView(created))
}

// LikeComment handles POST /api/comments/:id/like
// @Summary Toggle comment like
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{liked=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	liked, err := s.likeService.ToggleCommentLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Description Soft delete. Replies stay attached and the comment renders as a placeholder.
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{deleted=bool}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: id,
	}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}
