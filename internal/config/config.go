package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Probe    ProbeConfig
	Feed     FeedConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type IngestConfig struct {
	// OnlyUS stores non-US postings flagged out of scope for feeds.
	OnlyUS bool
	// CronSpec schedules the recurring batch on the server; empty
	// disables scheduled ingestion (one-shot CLI still works).
	CronSpec     string
	FetchTimeout time.Duration

	BoardFeedURL     string
	BoardFeedPages   int
	BoardFeedPerSec  float64
	CareerPageTarget string
}

type ProbeConfig struct {
	CronSpec string
	Workers  int
	Batch    int
}

type FeedConfig struct {
	TTL time.Duration
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optInt := func(key string, def int) int {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}
	optFloat := func(key string, def float64) float64 {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return def
		}
		return f
	}
	optBool := func(key string, def bool) bool {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	optSeconds := func(key string, def time.Duration) time.Duration {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return def
		}
		return time.Duration(n) * time.Second
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        optSeconds("DB_CONNECT_TIMEOUT_SECONDS", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optSeconds("DB_POOL_MAX_CONN_LIFETIME_SECONDS", 30*time.Minute),
		PoolMaxConnIdleTime:   optSeconds("DB_POOL_MAX_CONN_IDLE_SECONDS", 5*time.Minute),
		PoolHealthCheckPeriod: optSeconds("DB_POOL_HEALTHCHECK_SECONDS", time.Minute),
	}

	cfg.Ingest = IngestConfig{
		OnlyUS:           optBool("INGEST_ONLY_US", false),
		CronSpec:         opt("INGEST_CRON"),
		FetchTimeout:     optSeconds("INGEST_FETCH_TIMEOUT_SECONDS", 2*time.Minute),
		BoardFeedURL:     opt("BOARDFEED_BASE_URL"),
		BoardFeedPages:   optInt("BOARDFEED_PAGES", 3),
		BoardFeedPerSec:  optFloat("BOARDFEED_RATE_PER_SEC", 1),
		CareerPageTarget: opt("CAREERPAGE_TARGETS"),
	}

	cfg.Probe = ProbeConfig{
		CronSpec: opt("PROBE_CRON"),
		Workers:  optInt("PROBE_WORKERS", 4),
		Batch:    optInt("PROBE_BATCH", 100),
	}

	cfg.Feed = FeedConfig{
		TTL: optSeconds("FEED_TTL_SECONDS", 6*time.Hour),
	}

	if cfg.Probe.CronSpec == "" {
		cfg.Probe.CronSpec = "@every 10m"
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}
