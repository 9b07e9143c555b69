package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	statusHealthy     = "healthy"
	statusUnhealthy   = "unhealthy"
	statusUnavailable = "unavailable"
)

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles GET /health/ready. The database and redis are
// required; object storage is reported but does not fail readiness.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,checks=object}
// @Failure 503 {object} object{status=string,checks=object}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := statusHealthy
	if s.db == nil {
		dbStatus = statusUnavailable
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = statusUnhealthy
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = statusUnhealthy
	}

	redisStatus := statusUnavailable
	if s.redis != nil {
		redisStatus = statusHealthy
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = statusUnhealthy
		}
	}

	storageStatus := statusUnavailable
	if s.objects != nil {
		storageStatus = statusHealthy
		if err := s.objects.CheckBucket(ctx); err != nil {
			storageStatus = statusUnhealthy
		}
	}

	status := fiber.StatusOK
	overall := statusHealthy
	if dbStatus != statusHealthy || redisStatus != statusHealthy {
		status = fiber.StatusServiceUnavailable
		overall = statusUnhealthy
	}

	connections := 0
	if s.hub != nil {
		connections = s.hub.ConnectionCount()
	}

	return c.Status(status).JSON(fiber.Map{
		"status":      overall,
		"connections": connections,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		},
		"time": time.Now().UTC(),
	})
}
