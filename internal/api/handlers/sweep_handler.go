package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

type SweepHandler struct {
	p service.PublishService
}

func NewSweepHandler(publishService service.PublishService) *SweepHandler {
	return &SweepHandler{p: publishService}
}

// RunSweep runs one pass synchronously. Failed posts are reported inside a
// 200 response; only a failure to load the due posts returns 500.
func (h *SweepHandler) RunSweep(c *fiber.Ctx) error {
	result, err := h.p.RunDuePostSweep(c.Context())
	if err != nil {
		slog.Error("sweep failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
