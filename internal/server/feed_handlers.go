package server

import (
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFollowingFeed handles GET /api/feed/following
// @Summary Following feed
// @Description Posts by accounts the caller follows, newest first. An unknown cursor returns the first page.
// @Tags feed
// @Produce json
// @Param cursor query int false "Id of the last post of the previous page"
// @Param limit query int false "Page size (1-50, default 10)"
// @Success 200 {array} service.PostView
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /feed/following [get]
func (s *Server) GetFollowingFeed(c *fiber.Ctx) error {
	cursor, err := parseCursor(c)
	if err != nil {
		return nil
	}

	posts, err := s.feedService.FollowingFeed(c.UserContext(), currentUserID(c),
		c.QueryInt("limit", service.DefaultFeedLimit), cursor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(service.NewPostViews(posts))
}
