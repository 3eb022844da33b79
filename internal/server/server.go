package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/pipeline"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/repository"
)

// Server is the HTTP surface over the pipeline. Everything it does is a thin
// translation layer; job semantics live in the controller and repositories.
type Server struct {
	app    *fiber.App
	cfg    *common.Config
	jobs   repository.JobRepository
	ctrl   *pipeline.Controller
	logger *slog.Logger
}

func New(cfg *common.Config, jobs repository.JobRepository, ctrl *pipeline.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		jobs:   jobs,
		ctrl:   ctrl,
		logger: logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Consultas-CLT",
		DisableStartupMessage: true,
	})

	app.Get("/", s.handleStatus)
	app.Get("/status", s.handleStatus)
	app.Get("/jobs/pending", s.handleListPending)
	app.Get("/jobs/history", s.handleHistory)
	app.Get("/jobs/history/export", s.handleHistoryExport)
	app.Get("/metrics", s.handleMetrics)
	app.Post("/jobs/process", s.handleProcessNext)
	app.Post("/jobs/:id/process", s.handleProcessByID)
	app.Post("/jobs/:id/reprocess", s.handleReprocess)
	app.Get("/jobs/:id/artifact", s.handleArtifact)

	s.app = app
	return s
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("http server listening", "addr", s.cfg.Server.Addr)
	return s.app.Listen(s.cfg.Server.Addr)
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
