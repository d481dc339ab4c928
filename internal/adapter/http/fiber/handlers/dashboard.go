package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/agrovoz/internal/ports"
)

type DashboardHandler struct {
	service ports.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(service ports.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, log: log}
}

func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	_, farmID := middleware.Identity(c)

	if c.QueryBool("refresh") {
		if err := h.service.Invalidate(c.UserContext(), farmID); err != nil {
			h.log.Warn("Failed to invalidate dashboard", zap.String("farm_id", farmID), zap.Error(err))
		}
	}

	summary, err := h.service.Summary(c.UserContext(), farmID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
