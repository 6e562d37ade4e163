package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"quicker-admin/logger"
	"quicker-admin/types"
)

type ServerController struct {
	db        *gorm.DB
	startedAt time.Time
}

func NewServerController(db *gorm.DB) *ServerController {
	return &ServerController{db: db, startedAt: time.Now()}
}

// Health reports liveness and whether the database answers a ping.
func (h *ServerController) Health(c *fiber.Ctx) error {
	data := fiber.Map{
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"database":       "ok",
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		logger.Error("Health check failed", err)
		data["database"] = "unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.ApiResponse{
			Message: "Database unavailable",
			Status:  fiber.StatusServiceUnavailable,
			Data:    data,
		})
	}
	return c.JSON(types.ApiResponse{Message: "Server is running", Status: fiber.StatusOK, Data: data})
}
