package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// EscapeCell neutralizes spreadsheet formula injection: any cell starting
// with a formula-trigger character is prefixed with a single quote. The
// transformation is applied uniformly to every cell and is reversible by
// stripping the leading quote.
func EscapeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}

// CSVWriter writes one CSV file per output kind into a directory
type CSVWriter struct {
	outputDir string
}

func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir}
}

// WriteFile writes header and rows to <outputDir>/<name>.csv with the
// escaping contract applied to every cell, and returns the file path
func (w *CSVWriter) WriteFile(name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(escapeRow(header)); err != nil {
		return "", fmt.Errorf("writing %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := writer.Write(escapeRow(row)); err != nil {
			return "", fmt.Errorf("writing %s row: %w", name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", name, err)
	}

	return path, nil
}

// escapeRow applies EscapeCell to each cell exactly once
func escapeRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCell(cell)
	}
	return escaped
}
