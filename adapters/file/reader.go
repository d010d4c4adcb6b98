// Package file reads CSV and Excel files into raw records for the
// normalizer. It is a connector; the analysis stages never import it.
package file

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"studio/internal"
	"studio/internal/errors"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		log:      internal.DefaultLogger.Named("file"),
	}
}

// ReadRecords reads the file into raw records, one map per data row.
// The first row is the header; blank cells become nil values.
func (r *DataReader) ReadRecords() ([]map[string]any, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.SourceUnreadable(r.filePath, err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput("unsupported file type " + r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.InvalidInput("file needs a header row and at least one data row")
	}
	return r.recordsFromRows(rows), nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.SourceUnreadable(r.filePath, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.SourceUnreadable(r.filePath, err)
	}
	r.log.Debug("read %d rows from sheet %s", len(rows), sheet)
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.SourceUnreadable(r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Ragged rows are tolerated; short rows leave trailing cells blank.
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.SourceUnreadable(r.filePath, err)
		}
		rows = append(rows, record)
	}
	r.log.Debug("read %d rows from csv", len(rows))
	return rows, nil
}

// recordsFromRows converts raw string rows into keyed records using the
// header row. Duplicate or empty headers get positional fallbacks so no
// cell is silently dropped.
func (r *DataReader) recordsFromRows(rows [][]string) []map[string]any {
	headers := headerNames(rows[0])

	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				record[header] = row[i]
			} else {
				record[header] = nil
			}
		}
		records = append(records, record)
	}
	return records
}

func headerNames(headerRow []string) []string {
	headers := make([]string, len(headerRow))
	seen := map[string]int{}
	for i, header := range headerRow {
		name := strings.TrimSpace(header)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name]++
		if seen[name] > 1 {
			name = name + "_" + strconv.Itoa(seen[name])
		}
		headers[i] = name
	}
	return headers
}
