package constants

// JobStatus is the canonical status for rows in controle_consultas.
type JobStatus string

// Stable values (store these exact strings in DB). A NULL status is treated
// the same as PENDING.
const (
	JobStatusPending    JobStatus = "PENDING"     // waiting for a pipeline run
	JobStatusInProgress JobStatus = "IN_PROGRESS" // claimed by a controller
	JobStatusFinalized  JobStatus = "FINALIZADO"  // pipeline completed
	JobStatusError      JobStatus = "ERRO"        // last run failed, retryable until the attempt limit
)

// Stage identifies the pipeline stage a failure came from.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageTransform  Stage = "transformation"
	StageStorage    Stage = "storage"
)

// DefaultAttemptLimit is the number of failed runs after which a job is no
// longer selected automatically. It stays manually reprocessable.
const DefaultAttemptLimit = 3
