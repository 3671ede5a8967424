package bootstrap

import (
	"axis-backend/internal/config"
	"axis-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosting (the api handler imports
// this package, not internal). Background workers are not started here; a
// scheduled job calls POST /api/v1/internal/notifications/drain to deliver mail.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.ConfigureLogging()
	app, _, err := router.CreateApp(cfg)
	return app, err
}
