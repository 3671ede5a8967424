package health

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	healthsvc "axis-backend/internal/application/health"
	"axis-backend/internal/middleware"
	"axis-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const serviceName = "axis-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	Queue          healthsvc.QueueMeter
	HealthAdminKey string
}

func (h *Handlers) collect(ctx context.Context) healthsvc.CollectResult {
	return healthsvc.CollectHealth(ctx, healthsvc.Sources{Redis: h.Rdb, DB: h.DB, Queue: h.Queue})
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if !middleware.KeyMatches(c.Query("key"), h.HealthAdminKey) {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	ctx := c.Context()
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	if err := h.Rdb.Del(ctx, keys...).Err(); err != nil {
		return response.FromError(c, err)
	}
	if err := h.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns health data as JSON.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.collect(c.Context())
	out := map[string]interface{}{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
		"queue":        result.Queue,
	}
	return c.JSON(out)
}

// Errors returns the most recent error log entries recorded by the health marker.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	ctx := c.Context()
	entries, err := h.Rdb.LRange(ctx, middleware.KeyErrorLog, 0, middleware.ErrorLogSize-1).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	errs := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if _ = json.Unmarshal([]byte(s), &m); m != nil {
			errs = append(errs, m)
		}
	}
	return c.JSON(errs)
}

// Dashboard returns the HTML status page with embedded health data.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	page := healthsvc.RenderDashboardHTML(h.collect(c.Context()))
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(page)
}
