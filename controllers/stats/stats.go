package stats

import (
	"github.com/gofiber/fiber/v2"

	"quicker-admin/services/stats"
	"quicker-admin/types"
	"quicker-admin/utils"
)

type StatsController struct {
	stats *stats.Service
}

func NewStatsController(s *stats.Service) *StatsController {
	return &StatsController{stats: s}
}

func (h *StatsController) Overview(c *fiber.Ctx) error {
	overview, err := h.stats.Overview(c.UserContext(), c.QueryInt("days", 30))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Statistics fetched", Status: fiber.StatusOK, Data: overview})
}

func (h *StatsController) Daily(c *fiber.Ctx) error {
	daily, err := h.stats.Daily(c.UserContext(), c.QueryInt("days", 30))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Daily statistics fetched", Status: fiber.StatusOK, Data: daily})
}

func (h *StatsController) APIUsage(c *fiber.Ctx) error {
	usage, err := h.stats.APIUsage(c.UserContext(), c.QueryInt("days", 30))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "API usage fetched", Status: fiber.StatusOK, Data: usage})
}
