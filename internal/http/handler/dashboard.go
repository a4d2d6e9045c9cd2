package handler

import (
	"github.com/gofiber/fiber/v2"

	"receivingapi/internal/service"
)

// ActiveReceivings handles GET /receivings/active.
func ActiveReceivings(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.ActiveReceivings(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// DashboardSnapshot handles GET /dashboard, served from the TTL cache.
func DashboardSnapshot(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := svc.Snapshot(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snap)
	}
}

// ReceivingStats handles GET /stats.
func ReceivingStats(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(stats)
	}
}

// TodayReceivingStats handles GET /stats/today.
func TodayReceivingStats(svc service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.TodayStats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(stats)
	}
}
