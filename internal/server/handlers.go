package server

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/extract"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	counts, err := s.jobs.CountByStatus(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "erro",
			"msg":    "database unreachable",
			"db":     "falha",
		})
	}

	var last *string
	if t, err := s.jobs.LastFinalizedAt(c.Context()); err == nil && t != nil {
		v := t.Format("2006-01-02 15:04:05")
		last = &v
	}

	return c.JSON(fiber.Map{
		"status":               "ok",
		"db":                   "conectado",
		"pendentes":            counts.Pending + counts.Errored,
		"ultimo_processamento": last,
	})
}

func (s *Server) handleListPending(c *fiber.Ctx) error {
	jobs, err := s.jobs.ListPending(c.Context(), s.cfg.Pipeline.AttemptLimit)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(jobs), "registros": jobs})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	jobs, err := s.jobs.ListFinalized(c.Context(), 50)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(jobs), "historico": jobs})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	counts, err := s.jobs.CountByStatus(c.Context())
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"total_processados": counts.Finalized,
		"pendentes":         counts.Pending,
		"falhas":            counts.Errored,
	})
}

// handleProcessNext claims and runs the next eligible job synchronously.
func (s *Server) handleProcessNext(c *fiber.Ctx) error {
	res, err := s.ctrl.RunNext(c.Context())
	if err != nil {
		return s.internalError(c, err)
	}
	if res == nil {
		return c.JSON(fiber.Map{"status": "sem_pendentes", "msg": "nenhum registro pendente encontrado"})
	}
	return c.JSON(res)
}

// handleProcessByID runs a specific job, bypassing eligibility filtering.
func (s *Server) handleProcessByID(c *fiber.Ctx) error {
	return s.runByID(c, false)
}

// handleReprocess manually re-runs a job in any status, including finalized
// or attempt-exhausted ones.
func (s *Server) handleReprocess(c *fiber.Ctx) error {
	return s.runByID(c, true)
}

func (s *Server) runByID(c *fiber.Ctx, reprocess bool) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "erro", "msg": "id must be a positive integer",
		})
	}

	job, err := s.jobs.GetByID(c.Context(), int64(id))
	if err != nil {
		return s.internalError(c, err)
	}
	if job == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "erro", "msg": "registro não encontrado", "id": id,
		})
	}

	res := s.ctrl.Run(c.Context(), job, reprocess)
	return c.JSON(res)
}

// handleArtifact serves the downloaded spreadsheet for a processed job.
func (s *Server) handleArtifact(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "erro", "msg": "id must be a positive integer",
		})
	}

	job, err := s.jobs.GetByID(c.Context(), int64(id))
	if err != nil {
		return s.internalError(c, err)
	}
	if job == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "erro", "msg": "registro não encontrado", "id": id,
		})
	}

	path := filepath.Join(s.cfg.Pipeline.ArtifactDir, extract.ArtifactName(job.Title))
	if _, err := os.Stat(path); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "erro", "msg": "arquivo não encontrado", "id": id,
		})
	}
	return c.Download(path)
}

func (s *Server) internalError(c *fiber.Ctx, err error) error {
	s.logger.Error("http.internal_error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status": "erro", "msg": "internal error",
	})
}
