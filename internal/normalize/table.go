package normalize

// RawTable is an untyped tabular artifact: a header row plus data rows, all
// values as strings the way the spreadsheet reader produced them. Rows may
// be ragged; missing cells read as empty strings.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value of column i in row, tolerating short rows.
func (t *RawTable) Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Metrics summarizes one normalization pass.
type Metrics struct {
	InputRows         int `json:"linhas_excel"`
	OutputRows        int `json:"linhas_tratadas"`
	DuplicatesRemoved int `json:"cpfs_dedup"`
}
