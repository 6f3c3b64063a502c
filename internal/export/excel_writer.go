package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter collects the same tables the CSV writer produces into one
// workbook, one sheet per output kind
type ExcelWriter struct {
	file *excelize.File
	path string
}

func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{file: excelize.NewFile(), path: path}
}

// AddSheet appends one sheet with a header row followed by data rows
func (w *ExcelWriter) AddSheet(name string, header []string, rows [][]string) error {
	sheet := sheetName(name)
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	if err := w.writeRow(sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := w.writeRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// Save removes the default sheet and writes the workbook to disk
func (w *ExcelWriter) Save() error {
	for _, sheet := range w.file.GetSheetList() {
		if sheet == "Sheet1" && len(w.file.GetSheetList()) > 1 {
			if err := w.file.DeleteSheet("Sheet1"); err != nil {
				return fmt.Errorf("removing default sheet: %w", err)
			}
			break
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return w.file.Close()
}

func (w *ExcelWriter) writeRow(sheet string, rowNumber int, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, cell := range cells {
		values[i] = EscapeCell(cell)
	}
	start, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("writing sheet %s row %d: %w", sheet, rowNumber, err)
	}
	return nil
}

// sheetName trims an output name to Excel's 31-character sheet limit
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
