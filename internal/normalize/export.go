package normalize

import (
	"strconv"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
	"github.com/AUX01-gsconsig/Consultas-CLT/internal/entity"
)

// TableFromRecords projects canonical records back onto a RawTable with
// canonical headers. Normalizing the result is a no-op: normalization is a
// fixed point over its own output.
func TableFromRecords(records []entity.Record) *RawTable {
	t := &RawTable{Headers: append([]string(nil), constants.CanonicalColumns...)}
	for i := range records {
		vals := records[i].ColumnValues()
		row := make([]string, len(vals))
		for j, v := range vals {
			switch x := v.(type) {
			case nil:
				row[j] = ""
			case string:
				row[j] = x
			case float64:
				row[j] = strconv.FormatFloat(x, 'f', -1, 64)
			case int:
				row[j] = strconv.Itoa(x)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
