package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/i79-incident-etl/internal/adapter/fetch"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/i79-incident-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/i79-incident-etl/internal/app"
	"github.com/couchcryptid/i79-incident-etl/internal/config"
	"github.com/couchcryptid/i79-incident-etl/internal/domain"
	"github.com/couchcryptid/i79-incident-etl/internal/observability"
	"github.com/couchcryptid/i79-incident-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	analyzer := domain.NewAnalyzer(domain.DefaultLexicon())

	var fetcher fetch.Fetcher = fetch.NewClient(cfg.FetchTimeout, cfg.UserAgent, metrics)
	if cfg.SnapshotDir != "" {
		rec, err := fetch.NewRecorder(fetcher, cfg.SnapshotDir, logger)
		if err != nil {
			logger.Error("failed to create snapshot recorder", "error", err)
			return 1
		}
		if err := rec.MarkRun(clock.Now()); err != nil {
			logger.Warn("failed to record run time", "error", err)
		}
		fetcher = rec
		logger.Info("recording source snapshots", "dir", cfg.SnapshotDir)
	}

	loaders, closeLoaders, err := app.Loaders(cfg, logger)
	if err != nil {
		logger.Error("failed to create loaders", "error", err)
		return 1
	}
	defer func() {
		if err := closeLoaders(); err != nil {
			logger.Error("loader close error", "error", err)
		}
	}()

	p := pipeline.New(pipeline.Config{
		Sources:     app.Sources(cfg.Sources, cfg.Lookback, fetcher, analyzer, clock, logger),
		Overrides:   jsonfile.NewOverrideStore(cfg.OverridesPath, logger),
		Loaders:     loaders,
		Analyzer:    analyzer,
		Clock:       clock,
		Concurrency: cfg.SourceConcurrency,
		Interval:    cfg.RunInterval,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunInterval <= 0 {
		if err := p.Run(ctx); err != nil {
			logger.Error("run failed", "error", err)
			return 1
		}
		return 0
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// Loaders are closed on return, so the in-flight run must finish first.
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return 0
}
