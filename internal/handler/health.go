package handler

import (
	"github.com/hugsndnugs/Sentinel-Shop/internal/service"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	webhooks *service.WebhookService
}

func NewHealthHandler(webhooks *service.WebhookService) *HealthHandler {
	return &HealthHandler{webhooks: webhooks}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready reports whether the service can actually take orders, which it
// cannot without a configured webhook endpoint.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if !h.webhooks.Configured() {
		return c.Status(503).JSON(fiber.Map{"status": "not ready", "error": "webhook URL not configured"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
