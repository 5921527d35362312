package app

import (
	"context"
	"fmt"
	"strings"

	"jobradar/internal/delivery/http/handler"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
	"github.com/robfig/cron/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container, starts the background schedules and
// returns the app plus a cleanup that stops everything it started.
func Bootstrap(c *Container) (*App, func() error, error) {
	app := New(c)

	if err := c.ProbeRunner.Start(context.Background(), c.Config.Probe.CronSpec); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("start probe schedule: %w", err)
	}

	var ingestCron *cron.Cron
	if spec := strings.TrimSpace(c.Config.Ingest.CronSpec); spec != "" {
		ingestCron = cron.New()
		_, err := ingestCron.AddFunc(spec, func() {
			if _, err := c.IngestUC.TriggerBatch(context.Background(), ""); err != nil {
				c.Logger.Printf("[Ingest] Scheduled batch failed: %v", err)
			}
		})
		if err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("start ingest schedule: %w", err)
		}
		ingestCron.Start()
	}

	cleanup := func() error {
		if ingestCron != nil {
			<-ingestCron.Stop().Done()
		}
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	app.Use(middleware.NewErrorMiddleware(c.Logger).Middleware())
	app.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	routes.NewRegistry(
		handler.NewHealthHandler(c.DB, c.Cache),
		handler.NewFeedHandler(c.FeedUC, c.BreakdownUC),
		handler.NewIngestHandler(c.IngestUC),
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
