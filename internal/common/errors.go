package common

import (
	"errors"
	"fmt"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
)

// StageError carries the pipeline stage a failure belongs to. Every failure
// the controller sees is classified into exactly one stage before it reaches
// the job store.
type StageError struct {
	Stage   constants.Stage
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Sub-kinds distinguished inside the transformation stage. Both are terminal
// for the run, not retryable at the normalizer level.
var (
	ErrArtifactMissing = errors.New("source artifact not found")
	ErrArtifactEmpty   = errors.New("source artifact empty or corrupt")
)

// NewExtractionError wraps a failure of the extraction stage.
func NewExtractionError(message string, cause error) *StageError {
	return &StageError{Stage: constants.StageExtraction, Message: message, Cause: cause}
}

// NewTransformError wraps a failure of the transformation stage.
func NewTransformError(message string, cause error) *StageError {
	return &StageError{Stage: constants.StageTransform, Message: message, Cause: cause}
}

// NewStorageError wraps a connectivity, authentication or write failure.
func NewStorageError(message string, cause error) *StageError {
	return &StageError{Stage: constants.StageStorage, Message: message, Cause: cause}
}

// StageOf classifies err. Errors that carry no stage (panics recovered by
// the controller, context cancellations outside a stage call) default to the
// transformation stage, which is where post-hoc exceptions surfaced in
// practice.
func StageOf(err error) constants.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return constants.StageTransform
}
