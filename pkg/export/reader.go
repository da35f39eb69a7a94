package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadTabular parses a CSV or XLSX file into a Dataset. The format is chosen
// by file extension; anything that is not .xlsx is read as CSV. Headers are
// trimmed and lowercased; short records are padded so every row exposes
// every header.
func ReadTabular(path string) (Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readWorkbook(path)
	}
	return readCSV(path)
}

func readCSV(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err != nil {
		return Dataset{}, fmt.Errorf("read header row: %w", err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read row: %w", err)
		}
		records = append(records, record)
	}

	return tabulate(headerRecord, records), nil
}

func readWorkbook(path string) (Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open import workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Dataset{}, fmt.Errorf("workbook has no sheets")
	}
	// Data is always read from the first sheet, matching the export shape.
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Dataset{}, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(records) == 0 {
		return Dataset{}, fmt.Errorf("read header row: sheet %q is empty", sheets[0])
	}

	return tabulate(records[0], records[1:]), nil
}

// tabulate normalizes the header record and keys every data record by
// header. Records shorter than the header row are padded with empty cells.
func tabulate(headerRecord []string, records [][]string) Dataset {
	headers := make([]string, len(headerRecord))
	for i, h := range headerRecord {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []map[string]string
	for _, record := range records {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return Dataset{Headers: headers, Rows: rows}
}

// HasHeaders reports whether the dataset's header set covers all required
// column names.
func (d Dataset) HasHeaders(required ...string) bool {
	present := make(map[string]struct{}, len(d.Headers))
	for _, h := range d.Headers {
		present[h] = struct{}{}
	}
	for _, r := range required {
		if _, ok := present[r]; !ok {
			return false
		}
	}
	return true
}
