package export

import (
	"encoding/csv"
	"io"

	"fleetdocs/internal/domain"
)

// BOM is the UTF-8 byte order mark Excel on Windows needs to read UTF-8 CSV.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSV writes one section per category: a title row, the header row and
// the records. Sections are separated by a blank row.
func writeCSV(w io.Writer, records map[domain.Category][]domain.AnalysisRecord) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)

	first := true
	for _, c := range domain.Categories() {
		recs := records[c]
		if len(recs) == 0 {
			continue
		}
		schema, err := domain.SchemaFor(c)
		if err != nil {
			return err
		}
		if !first {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		first = false

		if err := cw.Write([]string{schema.Label}); err != nil {
			return err
		}
		if err := cw.Write(Columns(schema)); err != nil {
			return err
		}
		for i := range recs {
			if err := cw.Write(recordToRow(schema, &recs[i])); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
