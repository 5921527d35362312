package app

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"jobradar/internal/canonical"
	"jobradar/internal/config"
	"jobradar/internal/database"
	dbpostgres "jobradar/internal/database/postgres"
	"jobradar/internal/database/schema"
	"jobradar/internal/dedup"
	"jobradar/internal/domain/ranking"
	"jobradar/internal/infrastructure/cache"
	"jobradar/internal/ingest"
	"jobradar/internal/liveness"
	"jobradar/internal/repository"
	"jobradar/internal/usecase"
)

type Container struct {
	Config config.Config
	Logger *log.Logger
	DB     database.DB
	Cache  *cache.Redis

	Jobs       *repository.PostgresJobRepository
	Candidates *repository.PostgresCandidateRepository
	Corpus     *repository.PostgresCorpusRepository
	Stats      *repository.PostgresSourceStatsRepository

	Orchestrator *ingest.Orchestrator
	ProbeRunner  *liveness.Runner

	FeedUC      usecase.FeedUsecase
	BreakdownUC usecase.BreakdownUsecase
	IngestUC    usecase.IngestUsecase
}

func NewContainer(cfg config.Config) (*Container, error) {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := schema.Ensure(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	redisCache := cache.NewRedis(logger)

	jobs := repository.NewPostgresJobRepository(db)
	candidates := repository.NewPostgresCandidateRepository(db)
	corpus := repository.NewPostgresCorpusRepository(db)
	stats := repository.NewPostgresSourceStatsRepository(db)
	staging := repository.NewPostgresStagingRepository(db)

	orch := ingest.NewOrchestrator(
		buildAdapters(cfg.Ingest, staging),
		canonical.New(canonical.Options{OnlyUS: cfg.Ingest.OnlyUS}),
		dedup.New(logger),
		ingestStore{jobs, corpus},
		stats,
		logger,
		cfg.Ingest.FetchTimeout,
	)

	prober := liveness.NewRunner(liveness.NewProber(), jobs, stats, logger, cfg.Probe.Workers, cfg.Probe.Batch)

	engine := ranking.NewEngine()
	feedUC := usecase.NewFeedUsecase(candidates, jobs, corpus, redisCache, engine, logger, cfg.Feed.TTL)
	breakdownUC := usecase.NewBreakdownUsecase(candidates, jobs, engine)
	ingestUC := usecase.NewIngestUsecase(orch, redisCache, redisCache, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Cache:        redisCache,
		Jobs:         jobs,
		Candidates:   candidates,
		Corpus:       corpus,
		Stats:        stats,
		Orchestrator: orch,
		ProbeRunner:  prober,
		FeedUC:       feedUC,
		BreakdownUC:  breakdownUC,
		IngestUC:     ingestUC,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.ProbeRunner != nil {
		c.ProbeRunner.Stop()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// ingestStore glues the per-table repositories into the single store
// surface the orchestrator writes through.
type ingestStore struct {
	*repository.PostgresJobRepository
	*repository.PostgresCorpusRepository
}

func buildAdapters(cfg config.IngestConfig, staging *repository.PostgresStagingRepository) []ingest.Adapter {
	adapters := []ingest.Adapter{ingest.NewInternalAdapter(staging)}

	if cfg.BoardFeedURL != "" {
		adapters = append(adapters, ingest.NewBoardFeedAdapter(ingest.BoardFeedConfig{
			Name:       "boardfeed",
			BaseURL:    cfg.BoardFeedURL,
			Pages:      cfg.BoardFeedPages,
			RatePerSec: cfg.BoardFeedPerSec,
		}))
	}

	for _, t := range parseCareerPageTargets(cfg.CareerPageTarget) {
		adapters = append(adapters, ingest.NewCareerPageAdapter(t))
	}
	return adapters
}

// parseCareerPageTargets parses the CAREERPAGE_TARGETS env format:
// semicolon-separated entries of
// name|listURL|linkSelector|titleSelector|locationSelector|bodySelector|headless.
// Trailing fields may be omitted.
func parseCareerPageTargets(raw string) []ingest.CareerPageTarget {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	out := make([]ingest.CareerPageTarget, 0, 2)
	for _, entry := range strings.Split(raw, ";") {
		fields := strings.Split(strings.TrimSpace(entry), "|")
		if len(fields) < 2 || strings.TrimSpace(fields[0]) == "" || strings.TrimSpace(fields[1]) == "" {
			continue
		}
		t := ingest.CareerPageTarget{
			SourceName: strings.TrimSpace(fields[0]),
			ListURL:    strings.TrimSpace(fields[1]),
		}
		if len(fields) > 2 {
			t.LinkSelector = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			t.TitleSelector = strings.TrimSpace(fields[3])
		}
		if len(fields) > 4 {
			t.LocationSelector = strings.TrimSpace(fields[4])
		}
		if len(fields) > 5 {
			t.BodySelector = strings.TrimSpace(fields[5])
		}
		if len(fields) > 6 {
			if b, err := strconv.ParseBool(strings.TrimSpace(fields[6])); err == nil {
				t.Headless = b
			}
		}
		out = append(out, t)
	}
	return out
}
