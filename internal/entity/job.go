package entity

import (
	"strings"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
)

// Job represents one row of controle_consultas for data transfer between layers.
type Job struct {
	ID           int64      `json:"id"`
	Title        string     `json:"titulo_consulta"`
	Bank         *string    `json:"banco,omitempty"`
	Quantity     *int64     `json:"quantidade,omitempty"`
	Status       *string    `json:"status,omitempty"`
	AttemptCount int        `json:"attempt_count"`
	LastError    *string    `json:"last_error,omitempty"`
	CreatedAt    *time.Time `json:"data_criacao,omitempty"`
}

// EffectiveStatus folds a NULL status into PENDING.
func (j *Job) EffectiveStatus() constants.JobStatus {
	if j.Status == nil || *j.Status == "" {
		return constants.JobStatusPending
	}
	return constants.JobStatus(*j.Status)
}

// Finalized reports whether the job already completed a pipeline run.
// Legacy rows carry "Finalizado" instead of the canonical casing.
func (j *Job) Finalized() bool {
	return strings.EqualFold(string(j.EffectiveStatus()), string(constants.JobStatusFinalized))
}
