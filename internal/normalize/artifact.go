package normalize

import (
	"errors"
	"io/fs"

	"github.com/xuri/excelize/v2"

	"github.com/AUX01-gsconsig/Consultas-CLT/internal/common"
)

// ReadArtifact loads the first sheet of an xlsx artifact into a RawTable.
// The first row is the header row. A missing file and an empty or unreadable
// workbook are distinguished so the controller can report them separately;
// both are transformation-stage failures.
func ReadArtifact(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewTransformError(path, common.ErrArtifactMissing)
		}
		return nil, common.NewTransformError(path, errors.Join(common.ErrArtifactEmpty, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.NewTransformError(path, common.ErrArtifactEmpty)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, common.NewTransformError(path, errors.Join(common.ErrArtifactEmpty, err))
	}
	if len(rows) == 0 {
		return nil, common.NewTransformError(path, common.ErrArtifactEmpty)
	}

	return &RawTable{Headers: rows[0], Rows: rows[1:]}, nil
}
