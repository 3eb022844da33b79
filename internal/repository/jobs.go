package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
)

// resetAttemptsOnSuccess decides whether finalizing a job zeroes its attempt
// counter. It does not: the counter is audit history, and a finalized job
// that later regresses to ERRO keeps counting against the same limit.
const resetAttemptsOnSuccess = false

// StatusCounts summarizes controle_consultas for the status endpoints.
type StatusCounts struct {
	Finalized int64 `json:"finalizados"`
	Pending   int64 `json:"pendentes"`
	Errored   int64 `json:"erros"`
}

// JobRepository is the persisted job state machine.
type JobRepository interface {
	// ClaimNextPending atomically claims the oldest eligible job: status
	// neither finalized nor already claimed, attempt_count below limit.
	// Returns nil when nothing qualifies.
	ClaimNextPending(ctx context.Context, attemptLimit int) (*entity.Job, error)

	// GetByID bypasses eligibility filtering; manual reprocessing may
	// target finalized or exhausted jobs.
	GetByID(ctx context.Context, id int64) (*entity.Job, error)

	// RecordFailure increments attempt_count exactly once, writes ERRO plus
	// a composite error message, and reports the new count and whether the
	// limit is now reached. Safe to call repeatedly; the counter never
	// decrements.
	RecordFailure(ctx context.Context, jobID int64, stage constants.Stage, message string, attemptLimit int) (int, bool, error)

	// RecordSuccess writes FINALIZADO with a success annotation embedding
	// the attempt count at the time of success. When skipStatusWrite is set
	// (manual reprocess with ReprocessUpdatesStatus disabled) the terminal
	// row is left untouched.
	RecordSuccess(ctx context.Context, jobID int64, skipStatusWrite bool) error

	// ListPending lists jobs still eligible for automatic selection.
	ListPending(ctx context.Context, attemptLimit int) ([]entity.Job, error)

	// ListFinalized lists the most recently finalized jobs, newest first.
	ListFinalized(ctx context.Context, limit int) ([]entity.Job, error)

	// CountByStatus aggregates job counts for the metrics endpoint.
	CountByStatus(ctx context.Context) (StatusCounts, error)

	// LastFinalizedAt reports the creation time of the newest finalized
	// job, nil when none exists.
	LastFinalizedAt(ctx context.Context) (*time.Time, error)
}

type jobRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewJobRepository(db *sql.DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log}
}

const jobColumns = "id, titulo_consulta, banco, quantidade, status, attempt_count, last_error, data_criacao"

// Legacy rows predate the canonical status strings, so the finalized check
// matches both case variants.
const notFinalized = "(status IS NULL OR status NOT IN ('FINALIZADO', 'Finalizado', 'IN_PROGRESS'))"

func (r *jobRepo) ClaimNextPending(ctx context.Context, attemptLimit int) (*entity.Job, error) {
	// Single conditional UPDATE: selection and the transition to
	// IN_PROGRESS happen in one statement, so two concurrent controllers
	// can never claim the same row. The eligibility predicate is repeated
	// on the outer UPDATE so a row claimed between subquery and update
	// fails the re-check instead of being claimed twice.
	query := fmt.Sprintf(`
		UPDATE controle_consultas
		SET status = '%s'
		WHERE id = (
			SELECT id FROM controle_consultas
			WHERE %s AND attempt_count < $1
			ORDER BY id ASC
			LIMIT 1
		) AND %s AND attempt_count < $2
		RETURNING %s`,
		constants.JobStatusInProgress, notFinalized, notFinalized, jobColumns)

	job, err := scanJob(r.db.QueryRowContext(ctx, query, attemptLimit, attemptLimit))
	if errors.Is(err, sql.ErrNoRows) {
		r.log.Info("jobs.claim.none_pending")
		return nil, nil
	}
	if err != nil {
		r.log.Error("jobs.claim.failed", "error", err)
		return nil, err
	}
	r.log.Info("jobs.claim.ok", "job_id", job.ID, "title", job.Title, "attempt_count", job.AttemptCount)
	return job, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*entity.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM controle_consultas WHERE id = $1", jobColumns)
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("jobs.get.failed", "job_id", id, "error", err)
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) RecordFailure(ctx context.Context, jobID int64, stage constants.Stage, message string, attemptLimit int) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var attempts int
	err = tx.QueryRowContext(ctx, `
		UPDATE controle_consultas
		SET status = $1, attempt_count = attempt_count + 1
		WHERE id = $2
		RETURNING attempt_count`,
		string(constants.JobStatusError), jobID).Scan(&attempts)
	if err != nil {
		r.log.Error("jobs.record_failure.failed", "job_id", jobID, "error", err)
		return 0, false, err
	}

	lastError := fmt.Sprintf("attempt %d/%d failed at %s: %s", attempts, attemptLimit, stage, message)
	if _, err := tx.ExecContext(ctx,
		"UPDATE controle_consultas SET last_error = $1 WHERE id = $2",
		lastError, jobID); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}

	limitReached := attempts >= attemptLimit
	r.log.Warn("jobs.record_failure.ok",
		"job_id", jobID, "stage", stage, "attempt_count", attempts, "limit_reached", limitReached)
	return attempts, limitReached, nil
}

func (r *jobRepo) RecordSuccess(ctx context.Context, jobID int64, skipStatusWrite bool) error {
	if skipStatusWrite {
		r.log.Info("jobs.record_success.skipped", "job_id", jobID)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var attempts int
	if err := tx.QueryRowContext(ctx,
		"SELECT attempt_count FROM controle_consultas WHERE id = $1", jobID).Scan(&attempts); err != nil {
		r.log.Error("jobs.record_success.failed", "job_id", jobID, "error", err)
		return err
	}

	annotation := fmt.Sprintf("finalized after %d failed attempt(s)", attempts)
	query := "UPDATE controle_consultas SET status = $1, last_error = $2 WHERE id = $3"
	args := []any{string(constants.JobStatusFinalized), annotation, jobID}
	if resetAttemptsOnSuccess {
		query = "UPDATE controle_consultas SET status = $1, last_error = $2, attempt_count = 0 WHERE id = $3"
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("jobs.record_success.failed", "job_id", jobID, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	r.log.Info("jobs.record_success.ok", "job_id", jobID, "attempt_count", attempts)
	return nil
}

func (r *jobRepo) ListPending(ctx context.Context, attemptLimit int) ([]entity.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM controle_consultas
		WHERE %s AND attempt_count < $1
		ORDER BY id ASC`, jobColumns, notFinalized)
	return r.queryJobs(ctx, query, attemptLimit)
}

func (r *jobRepo) ListFinalized(ctx context.Context, limit int) ([]entity.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM controle_consultas
		WHERE status IN ('FINALIZADO', 'Finalizado')
		ORDER BY id DESC
		LIMIT $1`, jobColumns)
	return r.queryJobs(ctx, query, limit)
}

func (r *jobRepo) CountByStatus(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status IN ('FINALIZADO', 'Finalizado') THEN 1 END),
			COUNT(CASE WHEN status IS NULL OR status NOT IN ('FINALIZADO', 'Finalizado', 'ERRO') THEN 1 END),
			COUNT(CASE WHEN status = 'ERRO' THEN 1 END)
		FROM controle_consultas`).Scan(&c.Finalized, &c.Pending, &c.Errored)
	if err != nil {
		r.log.Error("jobs.count.failed", "error", err)
		return StatusCounts{}, err
	}
	return c, nil
}

func (r *jobRepo) LastFinalizedAt(ctx context.Context) (*time.Time, error) {
	var raw any
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(data_criacao) FROM controle_consultas
		WHERE status IN ('FINALIZADO', 'Finalizado')`).Scan(&raw)
	if err != nil {
		return nil, err
	}
	return toTime(raw), nil
}

func (r *jobRepo) queryJobs(ctx context.Context, query string, args ...any) ([]entity.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("jobs.query.failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob maps one controle_consultas row onto the typed Job entity. This is
// the only place driver-shaped rows exist.
func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		job       entity.Job
		bank      sql.NullString
		quantity  sql.NullInt64
		status    sql.NullString
		lastError sql.NullString
		createdAt any
	)
	if err := row.Scan(&job.ID, &job.Title, &bank, &quantity, &status, &job.AttemptCount, &lastError, &createdAt); err != nil {
		return nil, err
	}
	if bank.Valid {
		job.Bank = &bank.String
	}
	if quantity.Valid {
		job.Quantity = &quantity.Int64
	}
	if status.Valid {
		job.Status = &status.String
	}
	if lastError.Valid {
		job.LastError = &lastError.String
	}
	job.CreatedAt = toTime(createdAt)
	return &job, nil
}

// toTime folds the timestamp shapes different drivers hand back (time.Time
// from pgx, TEXT from SQLite) into a single representation.
func toTime(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		return &x
	case string:
		return parseTimestamp(x)
	case []byte:
		return parseTimestamp(string(x))
	default:
		return nil
	}
}

func parseTimestamp(s string) *time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
