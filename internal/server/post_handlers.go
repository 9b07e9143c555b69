package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content   string   `json:"content"`
	MediaURLs []string `json:"mediaUrls"`
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post body"
// @Success 201 {object} service.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:    currentUserID(c),
		Content:   req.Content,
		MediaURLs: req.MediaURLs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(service.NewPostView(post))
}

// GetPosts handles GET /api/posts
// @Summary Global timeline
// @Description Newest posts first. Pass the id of the last post as cursor for the next page.
// @Tags posts
// @Produce json
// @Param cursor query int false "Id of the last post of the previous page"
// @Param limit query int false "Page size (1-50)"
// @Success 200 {array} service.PostView
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	cursor, err := parseCursor(c)
	if err != nil {
		return nil
	}
	viewerID := s.optionalUserID(c)

	posts, err := s.postService.ListPosts(c.UserContext(), viewerID,
		c.QueryInt("limit", service.DefaultFeedLimit), cursor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(service.NewPostViews(posts))
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(service.NewPostView(post))
}

// LikePost handles POST /api/posts/:id/like
// @Summary Toggle post like
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{liked=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	liked, err := s.likeService.TogglePostLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}
