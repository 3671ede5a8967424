package router

import (
	"errors"
	"net/http"

	deptsvc "axis-backend/internal/application/departments"
	"axis-backend/internal/application/emails"
	empsvc "axis-backend/internal/application/employees"
	"axis-backend/internal/application/identity"
	invsvc "axis-backend/internal/application/invitations"
	"axis-backend/internal/application/notifications"
	orgsvc "axis-backend/internal/application/org"
	"axis-backend/internal/config"
	"axis-backend/internal/infrastructure/database"
	depthandler "axis-backend/internal/interfaces/handlers/departments"
	emphandler "axis-backend/internal/interfaces/handlers/employees"
	healthhandler "axis-backend/internal/interfaces/handlers/health"
	invhandler "axis-backend/internal/interfaces/handlers/invitations"
	notifyhandler "axis-backend/internal/interfaces/handlers/notifications"
	orghandler "axis-backend/internal/interfaces/handlers/org"
	"axis-backend/internal/metrics"
	"axis-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the shared clients the app and the background workers run on.
type Deps struct {
	DB        *gorm.DB
	Rdb       *redis.Client
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Queue     *notifications.Queue
	Directory identity.Directory

	// Dispatcher and Sweeper run in the background under cmd/api and are
	// driven through the internal drain route on serverless hosts.
	Dispatcher *notifications.Dispatcher
	Sweeper    *notifications.Sweeper
}

// NewDeps builds the metrics registry, the notification pipeline and the
// cached profile directory around already-open storage clients.
func NewDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Deps, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	queue := &notifications.Queue{Rdb: rdb}
	return &Deps{
		DB:       db,
		Rdb:      rdb,
		Registry: reg,
		Metrics:  m,
		Queue:    queue,
		Directory: &identity.CachedDirectory{
			Next: &identity.GormDirectory{DB: db},
			Rdb:  rdb,
			TTL:  cfg.ProfileCacheTTL,
		},
		Dispatcher: &notifications.Dispatcher{
			DB:          db,
			Queue:       queue,
			Sender:      &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
			MaxAttempts: cfg.NotifyMaxAttempts,
			Metrics:     m,
			Logger:      log.Logger.With().Str("component", "notification_dispatcher").Logger(),
		},
		Sweeper: notifications.NewSweeper(db, queue, m, log.Logger),
	}, nil
}

// Connect opens Postgres and Redis from cfg.
func Connect(cfg *config.Config) (*Deps, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return NewDeps(cfg, db, redis.NewClient(opt))
}

// CreateApp connects to storage and returns the wired app.
func CreateApp(cfg *config.Config) (*fiber.App, *Deps, error) {
	deps, err := Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewApp(cfg, deps), deps, nil
}

// NewApp registers middleware and every route on a new Fiber app.
func NewApp(cfg *config.Config, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(middleware.SessionConfig{}, deps.Rdb))
	app.Use(middleware.HealthMarker(deps.Rdb))
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            deps.Rdb,
		DB:             &gormDBPinger{db: deps.DB},
		Queue:          deps.Queue,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	orgs := &orgsvc.Service{DB: deps.DB, Metrics: deps.Metrics}
	emps := &empsvc.Service{DB: deps.DB, Directory: deps.Directory}
	depts := &deptsvc.Service{DB: deps.DB, Directory: deps.Directory, Metrics: deps.Metrics}
	invs := &invsvc.Service{
		DB:        deps.DB,
		Directory: deps.Directory,
		Publisher: deps.Queue,
		Metrics:   deps.Metrics,
		SiteURL:   cfg.SiteURL,
	}

	oh := &orghandler.Handlers{Service: orgs}
	eh := &emphandler.Handlers{Service: emps}
	dh := &depthandler.Handlers{Service: depts}
	ih := &invhandler.Handlers{Service: invs}
	nh := &notifyhandler.Handlers{
		Outbox:     &notifications.Outbox{DB: deps.DB, Publisher: deps.Queue},
		Sweeper:    deps.Sweeper,
		Dispatcher: deps.Dispatcher,
	}

	api := app.Group("/api/v1")

	// Public
	api.Get("/organisations/:id/limits", oh.Limits)
	api.Post("/invitations/public/validate", ih.Validate)
	internal := api.Group("/internal", middleware.InternalKey(cfg.InternalAPIKey))
	internal.Post("/notifications", nh.Enqueue)
	internal.Post("/notifications/drain", nh.Drain)

	auth := api.Group("", middleware.RequireAuth())

	auth.Post("/organisations", oh.Create)
	auth.Get("/organisations", oh.List)
	auth.Get("/organisations/:id", oh.Get)
	auth.Patch("/organisations/:id", oh.UpdateProfile)
	auth.Patch("/organisations/:id/subscription", oh.UpdateSubscription)
	auth.Post("/organisations/:id/complete-onboarding", oh.CompleteOnboarding)
	auth.Delete("/organisations/:id", oh.Delete)

	auth.Get("/organisations/:id/employees", eh.List)
	auth.Get("/organisations/:id/employees/me", eh.Me)
	auth.Patch("/employees/:id", eh.Update)
	auth.Delete("/employees/:id", eh.Remove)

	auth.Post("/organisations/:id/departments", dh.Create)
	auth.Get("/organisations/:id/departments", dh.List)
	auth.Get("/departments/:id", dh.Get)
	auth.Patch("/departments/:id", dh.Update)
	auth.Post("/departments/:id/managers", dh.AddManager)
	auth.Delete("/departments/:id/managers/:employeeId", dh.RemoveManager)
	auth.Delete("/departments/:id", dh.Delete)

	auth.Post("/organisations/:id/invitations", ih.Send)
	auth.Get("/organisations/:id/invitations", ih.List)
	auth.Post("/invitations/accept", ih.Accept)
	auth.Patch("/invitations/:id/revoke", ih.Revoke)
	auth.Post("/invitations/:id/resend", ih.Resend)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
