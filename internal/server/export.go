package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const historyExportLimit = 500

// handleHistoryExport streams the finalized-job history as an xlsx workbook.
func (s *Server) handleHistoryExport(c *fiber.Ctx) error {
	jobs, err := s.jobs.ListFinalized(c.Context(), historyExportLimit)
	if err != nil {
		return s.internalError(c, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := []any{"id", "titulo_consulta", "banco", "quantidade", "status", "tentativas", "last_error", "data_criacao"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return s.internalError(c, err)
	}

	for i, job := range jobs {
		row := []any{
			job.ID,
			job.Title,
			deref(job.Bank),
			derefInt(job.Quantity),
			string(job.EffectiveStatus()),
			job.AttemptCount,
			deref(job.LastError),
			formatTime(job.CreatedAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return s.internalError(c, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return s.internalError(c, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return s.internalError(c, err)
	}

	name := fmt.Sprintf("historico_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int64) any {
	if p == nil {
		return ""
	}
	return *p
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
