package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/extract"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/normalize"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/repository"
)

// Result is the structured outcome of one pipeline run. The controller
// always returns one; no failure escapes past its boundary.
type Result struct {
	Status              string                  `json:"status"` // "ok" | "erro"
	RunID               string                  `json:"run_id"`
	JobID               int64                   `json:"id"`
	Title               string                  `json:"titulo,omitempty"`
	Artifact            string                  `json:"arquivo,omitempty"`
	Stage               constants.Stage         `json:"etapa,omitempty"`
	Message             string                  `json:"detalhe,omitempty"`
	AttemptCount        int                     `json:"tentativas"`
	AttemptLimitReached bool                    `json:"limite_atingido"`
	Metrics             *normalize.Metrics      `json:"meta,omitempty"`
	Write               *repository.WriteResult `json:"insercao,omitempty"`
}

// Controller drives one job through extract, normalize and write, and owns
// every state-machine transition on the job store. A run is sequential;
// concurrency lives one level up in the worker queue.
type Controller struct {
	extractor  extract.Extractor
	normalizer *normalize.Normalizer
	jobs       repository.JobRepository
	records    repository.RecordRepository
	cfg        *common.PipelineConfig
	logger     *slog.Logger
}

func NewController(
	ex extract.Extractor,
	n *normalize.Normalizer,
	jobs repository.JobRepository,
	records repository.RecordRepository,
	cfg *common.PipelineConfig,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		extractor:  ex,
		normalizer: n,
		jobs:       jobs,
		records:    records,
		cfg:        cfg,
		logger:     logger,
	}
}

// RunNext claims and runs the oldest eligible job. Returns nil when there is
// nothing to process.
func (c *Controller) RunNext(ctx context.Context) (*Result, error) {
	job, err := c.jobs.ClaimNextPending(ctx, c.cfg.AttemptLimit)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	res := c.Run(ctx, job, false)
	return &res, nil
}

// RunByID runs a specific job, bypassing eligibility filtering. reprocess
// marks the run as a manual re-execution of a possibly terminal job.
func (c *Controller) RunByID(ctx context.Context, jobID int64, reprocess bool) (*Result, error) {
	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %d not found", jobID)
	}
	res := c.Run(ctx, job, reprocess)
	return &res, nil
}

// Run executes the full stage sequence for an already-selected job. Any
// stage failure routes through RecordFailure; success routes through
// RecordSuccess, policy-gated for manual reprocessing of finalized jobs.
func (c *Controller) Run(ctx context.Context, job *entity.Job, reprocess bool) (res Result) {
	runID := uuid.NewString()
	log := c.logger.With("run_id", runID, "job_id", job.ID, "title", job.Title)

	res = Result{Status: "ok", RunID: runID, JobID: job.ID, Title: job.Title}

	wasFinalized := job.Finalized()

	// The controller's contract is a structured result, never a panic.
	defer func() {
		if p := recover(); p != nil {
			log.Error("pipeline.panic", "panic", p)
			c.fail(ctx, log, &res, fmt.Errorf("panic during run: %v", p))
		}
	}()

	log.Info("pipeline.run.start", "reprocess", reprocess, "attempt_count", job.AttemptCount)

	// extraction
	path, err := c.extractor.Extract(ctx, job.ID, job.Title)
	if err == nil && path == "" {
		err = fmt.Errorf("extractor returned no artifact")
	}
	if err != nil {
		log.Error("pipeline.extract.failed", "error", err)
		c.fail(ctx, log, &res, common.NewExtractionError("artifact download failed", err))
		return res
	}
	res.Artifact = path
	log.Info("pipeline.extract.ok", "artifact", path)

	// transformation
	table, err := normalize.ReadArtifact(path)
	if err != nil {
		log.Error("pipeline.transform.failed", "error", err)
		c.fail(ctx, log, &res, err)
		return res
	}
	recs, metrics, err := c.normalizer.Normalize(table)
	if err != nil {
		log.Error("pipeline.transform.failed", "error", err)
		c.fail(ctx, log, &res, err)
		return res
	}
	res.Metrics = &metrics
	log.Info("pipeline.transform.ok",
		"input_rows", metrics.InputRows,
		"output_rows", metrics.OutputRows,
		"duplicates_removed", metrics.DuplicatesRemoved)

	// storage write
	wr, err := c.records.Upsert(ctx, recs)
	if err != nil {
		log.Error("pipeline.write.failed", "error", err)
		c.fail(ctx, log, &res, err)
		return res
	}
	res.Write = &wr
	log.Info("pipeline.write.ok", "sent", wr.Sent, "new", wr.New, "updated", wr.Updated)

	// finalize
	skipStatusWrite := reprocess && wasFinalized && !c.cfg.ReprocessUpdatesStatus
	if err := c.jobs.RecordSuccess(ctx, job.ID, skipStatusWrite); err != nil {
		log.Error("pipeline.finalize.failed", "error", err)
		c.fail(ctx, log, &res, common.NewStorageError("finalize transition failed", err))
		return res
	}

	res.AttemptCount = job.AttemptCount
	log.Info("pipeline.run.ok", "skipped_status_write", skipStatusWrite)
	return res
}

// fail classifies err by stage, records the failure on the job store and
// fills the error half of the result. A job store outage during failure
// recording is logged and reflected in the result message; the attempt state
// simply was not advanced.
func (c *Controller) fail(ctx context.Context, log *slog.Logger, res *Result, err error) {
	stage := common.StageOf(err)
	res.Status = "erro"
	res.Stage = stage
	res.Message = err.Error()

	attempts, limitReached, rerr := c.jobs.RecordFailure(ctx, res.JobID, stage, err.Error(), c.cfg.AttemptLimit)
	if rerr != nil {
		log.Error("pipeline.record_failure.failed", "error", rerr)
		res.Message = fmt.Sprintf("%s (attempt bookkeeping also failed: %v)", res.Message, rerr)
		return
	}
	res.AttemptCount = attempts
	res.AttemptLimitReached = limitReached
	if limitReached {
		log.Warn("pipeline.attempt_limit_reached", "attempt_count", attempts, "limit", c.cfg.AttemptLimit)
	}
}
