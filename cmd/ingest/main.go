package main

import (
	"context"
	"flag"
	"log"
	"time"

	"jobradar/internal/app"
	"jobradar/internal/config"
	"jobradar/internal/ingest"
)

// One-shot batch runner for operators and cron jobs outside the server
// process. Runs a single ingestion pass and exits.
func main() {
	source := flag.String("source", "", "restrict the batch to one adapter by name")
	timeout := flag.Duration("timeout", 15*time.Minute, "overall batch timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	c, err := app.NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var report ingest.BatchReport
	if *source == "" {
		report, err = c.Orchestrator.RunBatch(ctx)
	} else {
		report, err = c.Orchestrator.RunBatchSource(ctx, *source)
	}
	if err != nil {
		log.Fatalf("batch failed: %v", err)
	}

	if err := c.Cache.InvalidateFeeds(ctx); err != nil {
		log.Printf("feed invalidation failed: %v", err)
	}

	var created, updated, skipped int
	for _, s := range report.Sources {
		created += s.Created
		updated += s.Updated
		skipped += s.Skipped
	}
	log.Printf("batch done corpus_version=%d created=%d updated=%d skipped=%d duration=%s",
		report.CorpusVersion, created, updated, skipped, report.FinishedAt.Sub(report.StartedAt))
}
