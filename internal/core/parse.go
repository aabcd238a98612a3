package core

// parse.go turns an uploaded CSV or Excel file into header-keyed rows.
//
// Both formats follow the same table rules:
//   - Blank rows (every cell empty after trimming) are skipped
//   - The first non-blank row is the header; a file without one parses to no rows
//   - Headers are cleaned with CleanCell; on duplicate headers the first wins
//   - Cells past the end of a short row are absent, not empty strings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies the parser chosen for an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// DetectFormat selects a parser from the lower-cased file extension.
func DetectFormat(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ParseRows reads every data row of r using the parser for format.
func ParseRows(r io.Reader, format Format) ([]RawRow, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX, FormatXLS:
		records, err = readWorkbook(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return keyRows(records)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(WrapForCSV(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read csv: %v", ErrParse, err)
	}
	return records, nil
}

// readWorkbook reads the first sheet. Cell values are taken raw so dates
// arrive as serial numbers and prices without currency formatting.
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: open workbook: %v", ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrParse, sheets[0], err)
	}
	return rows, nil
}

// keyRows applies the header rules and maps each data row by header name.
func keyRows(records [][]string) ([]RawRow, error) {
	headerAt := -1
	for i, rec := range records {
		if !isEmptyRow(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return []RawRow{}, nil
	}

	header := make([]string, len(records[headerAt]))
	seen := make(map[string]bool, len(header))
	for i, h := range records[headerAt] {
		name := CleanCell(h)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		header[i] = name
	}

	rows := make([]RawRow, 0, len(records)-headerAt-1)
	for _, rec := range records[headerAt+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make(RawRow, len(header))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
