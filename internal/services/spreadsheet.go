package services

import (
	"fmt"
	"freelyforms-backend/internal/schema"

	"github.com/xuri/excelize/v2"
)

const (
	answersSheet = "Answers"
	// XLSXContentType is the MIME type of generated exports.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// writeWorkbook builds the export workbook. Tests replace it to fail.
var writeWorkbook = streamWorkbook

// streamWorkbook streams table into a single-sheet workbook. Rows are pulled
// from the table one at a time.
func streamWorkbook(table schema.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", answersSheet); err != nil {
		f.Close()
		return nil, err
	}

	sw, err := f.NewStreamWriter(answersSheet)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := sw.SetRow("A1", toCells(table.Header)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := 2
	for cells := range table.Rows {
		axis, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := sw.SetRow(axis, toCells(cells)); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
