package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/cleanup"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
)

// CleanupRunner is satisfied by *cleanup.Scheduler.
type CleanupRunner interface {
	ManualCleanup(ctx context.Context, days int) ([]cleanup.Report, error)
}

type AdminController struct {
	cleanup       CleanupRunner
	retentionDays int
}

func NewAdminController(runner CleanupRunner, retentionDays int) *AdminController {
	return &AdminController{cleanup: runner, retentionDays: retentionDays}
}

// HandleCleanup purges trashed items older than ?days=N, the configured retention by default.
func (h *AdminController) HandleCleanup(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.retentionDays)
	reports, err := h.cleanup.ManualCleanup(c.UserContext(), days)
	if err != nil {
		return err
	}
	return response.OK(c, "Cleanup completed", reports)
}
