package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	wsTicketTTL       = 60 * time.Second
	wsTicketKeyPrefix = "ws_ticket:"
	blacklistPrefix   = "blacklist:"
)

// AuthRequired returns the authentication middleware. Websocket routes may
// authenticate with a single-use ticket; everything else needs a bearer JWT.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		if ticket := c.Query("ticket"); ticket != "" && isWSPath {
			userID, ok := s.redeemWSTicket(c, ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			setUser(c, userID)
			return c.Next()
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, middleware.BearerToken(c))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(authFailureMessage(err)))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), blacklistPrefix+claims.JTI).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		setUser(c, claims.UserID)
		return c.Next()
	}
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, middleware.ErrMissingToken):
		return "Authorization required"
	case errors.Is(err, middleware.ErrInvalidIssuer):
		return "Invalid token issuer"
	case errors.Is(err, middleware.ErrInvalidSubject):
		return "Invalid subject claim"
	default:
		return "Invalid or expired token"
	}
}

// setUser stores the authenticated id in locals and in the request context.
func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
}

// optionalUserID resolves the caller from a bearer token without enforcing it.
// Anonymous callers get 0.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	claims, err := middleware.ParseToken(s.config.JWTSecret, middleware.BearerToken(c))
	if err != nil {
		return 0
	}
	setUser(c, claims.UserID)
	return claims.UserID
}

// redeemWSTicket atomically consumes a ticket and returns its owner.
func (s *Server) redeemWSTicket(c *fiber.Ctx, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(c.UserContext(), wsTicketKeyPrefix+ticket).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue websocket ticket
// @Description Returns a single-use ticket for authenticating the websocket upgrade.
// @Tags realtime
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Realtime is unavailable",
		})
	}

	ticket := uuid.NewString()
	userID := strconv.FormatUint(uint64(currentUserID(c)), 10)
	if err := s.redis.Set(c.UserContext(), wsTicketKeyPrefix+ticket, userID, wsTicketTTL).Err(); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// requireFlag rejects callers for whom the named feature flag is off.
func (s *Server) requireFlag(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(name, currentUserID(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Feature "+name+" is not enabled"))
		}
		return c.Next()
	}
}

