package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/extract"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/normalize"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/pipeline"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/repository"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.HealthTimeout, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	jobsRepo := repository.NewJobRepository(db, logger)
	recordsRepo := repository.NewRecordRepository(db, logger)

	extractor := extract.NewDirExtractor(cfg.Pipeline.ArtifactDir, logger)
	normalizer := normalize.New(logger)
	ctrl := pipeline.NewController(extractor, normalizer, jobsRepo, recordsRepo, &cfg.Pipeline, logger)

	queue := pipeline.NewRunQueue(ctrl, logger,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithRunTimeout(cfg.Pipeline.RunTimeout),
	)
	poller := pipeline.NewPoller(jobsRepo, queue, cfg.Pipeline.PollInterval, cfg.Pipeline.AttemptLimit, logger)
	go poller.Run(ctx)

	srv := server.New(cfg, jobsRepo, ctrl, logger)
	go func() {
		if err := srv.Listen(); err != nil {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
