package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// WriteXLSX writes the sections as a workbook with one sheet per section.
// Amounts become numeric cells.
func WriteXLSX(w io.Writer, sections []Section) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, s := range sections {
		sheet := sheetName(s.Title)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("renaming first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}

		header := make([]any, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("writing %s header: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}

		for r, row := range s.Rows {
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = xlsxValue(v)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("writing %s row %d: %w", sheet, r+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func sheetName(title string) string {
	if len(title) > maxSheetName {
		return title[:maxSheetName]
	}
	return title
}

func xlsxValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.Round(2).InexactFloat64()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return t.Round(2).InexactFloat64()
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return v
	}
}
