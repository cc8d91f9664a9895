package handler

import (
	"time"

	"github.com/hugsndnugs/Sentinel-Shop/internal/limiter"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	orders  *OrderHandler
	limiter *limiter.Limiter
	started time.Time
}

func NewAdminHandler(orders *OrderHandler, lim *limiter.Limiter) *AdminHandler {
	return &AdminHandler{orders: orders, limiter: lim, started: time.Now()}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	accepted, rejected, failed := h.orders.Counters()

	return c.JSON(fiber.Map{
		"orders_accepted": accepted,
		"orders_rejected": rejected,
		"orders_failed":   failed,
		"delivery":        h.limiter.Snapshot(),
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
	})
}
