package notifications

import (
	"axis-backend/internal/application/notifications"
	"axis-backend/internal/domain"
	"axis-backend/internal/interfaces/handlers/params"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultDrainLimit = 50
	maxDrainLimit     = 500
)

// Handlers exposes the outbox to the auth service and to scheduled jobs.
type Handlers struct {
	Outbox     *notifications.Outbox
	Sweeper    *notifications.Sweeper
	Dispatcher *notifications.Dispatcher
}

type enqueueBody struct {
	Kind      domain.NotificationKind `json:"kind"`
	Recipient string                  `json:"recipient"`
	Params    map[string]interface{}  `json:"params"`
}

// Enqueue POST /api/v1/internal/notifications
func (h *Handlers) Enqueue(c *fiber.Ctx) error {
	var body enqueueBody
	if err := params.Body(c, &body); err != nil {
		return response.FromError(c, err)
	}
	n, err := h.Outbox.Enqueue(c.Context(), body.Kind, body.Recipient, body.Params)
	if err != nil {
		return response.FromError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(response.SuccessBody{
		Status:  "success",
		Message: "Notification queued",
		Data:    fiber.Map{"id": n.ID, "status": n.Status},
	})
}

// Drain POST /api/v1/internal/notifications/drain?limit=N
// Re-queues stale rows, then delivers up to limit queued notifications.
func (h *Handlers) Drain(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultDrainLimit)
	if limit <= 0 {
		limit = defaultDrainLimit
	}
	if limit > maxDrainLimit {
		limit = maxDrainLimit
	}
	requeued, err := h.Sweeper.RunNow(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	delivered, err := h.Dispatcher.Drain(c.Context(), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Notifications drained", fiber.Map{"requeued": requeued, "processed": delivered}, nil)
}
