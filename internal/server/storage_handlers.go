package server

import (
	"murmur/internal/models"
	"murmur/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUploadURL handles GET /api/storage/upload-url
// @Summary Presigned upload URL
// @Description The client PUTs the file to uploadUrl, then references publicUrl in a post.
// @Tags storage
// @Produce json
// @Param filename query string true "Original file name"
// @Param contentType query string true "MIME type"
// @Param size query int true "File size in bytes"
// @Success 200 {object} service.UploadURL
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /storage/upload-url [get]
func (s *Server) GetUploadURL(c *fiber.Ctx) error {
	if s.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Uploads are not configured",
		})
	}

	filename := c.Query("filename")
	contentType := c.Query("contentType")
	if filename == "" || contentType == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("filename and contentType are required"))
	}

	out, err := s.storageService.CreateUploadURL(c.UserContext(), service.UploadURLInput{
		UserID:      currentUserID(c),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(c.QueryInt("size", 0)),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
