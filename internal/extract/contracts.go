package extract

import (
	"context"
)

// Extractor is stage 1: job -> downloaded spreadsheet artifact.
// Implementations that drive the upstream dashboard live outside this
// module; the pipeline only depends on this contract. A failed or empty
// result is an extraction-stage failure.
type Extractor interface {
	Extract(ctx context.Context, jobID int64, title string) (string, error)
}
