package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// Artifact filenames are derived from the job title the same way the
// downloader names them.
var unsafeChars = regexp.MustCompile(`[\\/*?"<>|]+`)

// ArtifactName sanitizes a job title into the xlsx filename the downloader
// uses for it.
func ArtifactName(title string) string {
	return unsafeChars.ReplaceAllString(title, "_") + ".xlsx"
}

// DirExtractor resolves artifacts that an out-of-process downloader already
// left in a local directory. It is the default Extractor: the browser
// automation drops files into Dir and this adapter hands them to the
// pipeline.
type DirExtractor struct {
	Dir    string
	Logger *slog.Logger
}

func NewDirExtractor(dir string, logger *slog.Logger) *DirExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirExtractor{Dir: dir, Logger: logger}
}

func (e *DirExtractor) Extract(ctx context.Context, jobID int64, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(e.Dir, ArtifactName(title))
	info, err := os.Stat(path)
	if err != nil {
		e.Logger.Warn("extract.artifact_missing", "job_id", jobID, "path", path)
		return "", fmt.Errorf("artifact for job %d not found at %s: %w", jobID, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("artifact path %s is a directory", path)
	}

	e.Logger.Info("extract.artifact_found", "job_id", jobID, "path", path, "size", info.Size())
	return path, nil
}
