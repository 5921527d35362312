package routes

import (
	"jobradar/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	feed   *handler.FeedHandler
	ingest *handler.IngestHandler
}

func NewRegistry(health *handler.HealthHandler, feed *handler.FeedHandler, ingest *handler.IngestHandler) *Registry {
	return &Registry{health: health, feed: feed, ingest: ingest}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	if r.health != nil {
		app.Get("/health", r.health.HandleHealth)
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	if r.feed != nil {
		v1.Get("/feed/:candidate_id", r.feed.HandleDailyFeed)
		v1.Get("/feed/:candidate_id/jobs/:job_id", r.feed.HandleMatchBreakdown)
	}
	if r.ingest != nil {
		v1.Post("/ingest/run", r.ingest.HandleRunBatch)
	}
}
