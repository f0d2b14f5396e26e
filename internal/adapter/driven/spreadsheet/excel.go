// Package spreadsheet writes fleet status workbooks in xlsx format.
package spreadsheet

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// SheetName is the name of the single worksheet in an export.
const SheetName = "Fleet Status"

// Compile-time interface satisfaction check.
var _ driven.SpreadsheetWriter = (*ExcelWriter)(nil)

// toneFills maps status tones to cell background colours.
var toneFills = map[string]string{
	"danger":    "#F8D7DA",
	"warning":   "#FFF3CD",
	"success":   "#D1E7DD",
	"secondary": "#E2E3E5",
}

// ExcelWriter renders export rows with excelize.
type ExcelWriter struct{}

// NewExcelWriter creates an ExcelWriter.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// WriteFleetStatus writes a header row followed by one row per certificate.
// The Status cell is shaded by bucket tone.
func (e *ExcelWriter) WriteFleetStatus(ctx context.Context, w io.Writer, rows []model.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(model.ExportHeader))
	for i, h := range model.ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(model.ExportHeader))
	if err != nil {
		return fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	toneStyles := make(map[string]int, len(toneFills))
	for tone, color := range toneFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("create %s style: %w", tone, err)
		}
		toneStyles[tone] = id
	}

	for i, r := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return fmt.Errorf("resolve row %d: %w", rowNum, err)
		}

		coc := "No"
		if r.IsConditionOfClass {
			coc = "Yes"
		}
		values := []any{
			r.Vessel,
			r.IMO,
			r.Flag,
			r.ClassSociety,
			r.VesselType,
			r.Certificate,
			r.Category,
			coc,
			model.FormatDate(r.ExpiryDate),
			r.Status.Label,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}

		if style, ok := toneStyles[r.Status.Tone()]; ok {
			statusCell := fmt.Sprintf("%s%d", lastCol, rowNum)
			if err := f.SetCellStyle(SheetName, statusCell, statusCell, style); err != nil {
				return fmt.Errorf("style row %d: %w", rowNum, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
