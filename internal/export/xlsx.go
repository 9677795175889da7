package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	topSheet  = "Top"
	barsSheet = "Bars"
)

// WriteXLSX writes a workbook with one sheet for the ranked list and one for
// the per-year stacked totals.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", topSheet); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}
	if err := writeRows(f, topSheet, topRows(r)); err != nil {
		return err
	}

	if _, err := f.NewSheet(barsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	if err := writeRows(f, barsSheet, barRows(r)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func topRows(r Report) [][]any {
	rows := [][]any{{"Rank", "Label", "Location", "Date", "Magnitude", r.ValueLabel}}
	for _, t := range r.Top {
		rows = append(rows, []any{t.Rank, t.Label, t.Location, t.Date, t.Magnitude, t.Value})
	}
	return rows
}

func barRows(r Report) [][]any {
	rows := [][]any{{"Year", "Small", "Medium", "Large", "Major", "Total"}}
	for _, b := range r.Bars {
		rows = append(rows, []any{b.Year, b.Small, b.Medium, b.Large, b.Major, b.Total})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
