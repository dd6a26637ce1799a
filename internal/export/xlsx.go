package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"fleetdocs/internal/domain"
)

const summarySheet = "Register"

// sheetName returns a valid worksheet name for a category label.
func sheetName(schema domain.Schema) string {
	name := strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "-").Replace(schema.Label)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// writeXLSX writes a register overview sheet followed by one sheet per
// category with records.
func writeXLSX(w io.Writer, shipID string, records map[domain.Category][]domain.AnalysisRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Ship", shipID}); err != nil {
		return err
	}
	if err := f.SetSheetRow(summarySheet, "A3", &[]any{"Category", "Records", "Manual Entry Required"}); err != nil {
		return err
	}

	row := 4
	for _, c := range domain.Categories() {
		recs := records[c]
		if len(recs) == 0 {
			continue
		}
		schema, err := domain.SchemaFor(c)
		if err != nil {
			return err
		}

		manual := 0
		for i := range recs {
			if recs[i].Status == domain.RecordStatusManualEntryRequired {
				manual++
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &[]any{schema.Label, len(recs), manual}); err != nil {
			return err
		}
		row++

		if err := writeCategorySheet(f, schema, recs); err != nil {
			return fmt.Errorf("writing %s sheet: %w", c, err)
		}
	}

	return f.Write(w)
}

func writeCategorySheet(f *excelize.File, schema domain.Schema, recs []domain.AnalysisRecord) error {
	sheet := sheetName(schema)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := Columns(schema)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i := range recs {
		values := recordToRow(schema, &recs[i])
		cells := make([]any, len(values))
		for j, v := range values {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 22)
}
