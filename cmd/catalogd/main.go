// Package main is the entrypoint for the Cozy Cove catalog daemon. It runs
// the ingest and stats workers; the catalog query facade is a library that
// the storefront embeds directly.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cozycove/cozycove/internal/cache"
	"github.com/cozycove/cozycove/internal/config"
	"github.com/cozycove/cozycove/internal/ingest"
	"github.com/cozycove/cozycove/internal/marketplace"
	"github.com/cozycove/cozycove/internal/metrics"
	"github.com/cozycove/cozycove/internal/repository"
	"github.com/cozycove/cozycove/internal/runner"
	"github.com/cozycove/cozycove/internal/stats"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize, cfg.RedisMinIdleConns)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize metrics
	var recorder metrics.Recorder = metrics.NewNoop()
	if cfg.MetricsEnabled {
		recorder = metrics.NewPrometheus(prometheus.DefaultRegisterer)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(repo)
	statsRepo := repository.NewStatsRepository(repo)

	// Stats worker drains the click event stream into PostgreSQL and resets
	// the live click counters its batches cover.
	statsWorker := stats.NewWorker(cacheClient.Client(), statsRepo, logger, stats.NewConsumerID(), recorder)
	statsWorker.SetClickCounters(cacheClient)

	// Initialize the marketplace client. Request signing belongs to the
	// gateway deployment, so the daemon talks to it unsigned.
	marketplaceClient := marketplace.NewClient(cfg.MarketplaceBaseURL, cfg.MarketplaceTrackingID, nil, logger)

	// Ingest worker refreshes the catalog from the marketplace feed.
	ingestWorker := ingest.NewWorker(
		marketplaceClient,
		productRepo,
		cacheClient,
		cfg.GetIngestCollections(),
		logger,
		recorder,
	)
	ingestWorker.SetInterval(cfg.IngestInterval)
	ingestWorker.SetPageSize(cfg.IngestPageSize)

	// Supervise workers with graceful shutdown
	run := runner.New(cfg.ShutdownTimeout, logger)
	run.AddWorker("stats", statsWorker.Run)
	run.AddWorker("ingest", ingestWorker.Run)
	run.OnShutdown("stats", statsWorker.Shutdown)
	run.OnShutdown("ingest", ingestWorker.Shutdown)

	startOpsServer(cfg, repo, cacheClient, logger, run)

	logger.Info("starting catalog daemon",
		"env", cfg.AppEnv,
		"ingest_interval", cfg.IngestInterval.String(),
		"collections", len(cfg.GetIngestCollections()),
	)

	if err := run.Run(); err != nil {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

// startOpsServer exposes health probes and the Prometheus scrape endpoint.
func startOpsServer(cfg *config.Config, repo *repository.Repository, cacheClient *cache.Cache, logger *slog.Logger, run *runner.Runner) {
	mux := http.NewServeMux()
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := repo.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := cacheClient.Ping(ctx); err != nil {
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.OpsAddr, Handler: mux}
	go func() {
		logger.Info("ops server starting", "addr", cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server error", "error", err)
		}
	}()

	run.OnShutdown("ops-server", srv.Shutdown)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
