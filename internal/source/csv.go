// Package source loads bill-data records from CSV exports and the bill-data API.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/jgoulah/billchart/pkg/models"
)

const bom = "\ufeff"

// LoadCSVFile reads a CSV export from disk
func LoadCSVFile(path string) ([]models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer f.Close()

	records, err := LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// LoadCSV reads a header-keyed CSV export. Every cell is kept as a string under
// its column name; short rows simply lack the trailing fields. Rows without an
// id get a random one so they can be stored.
func LoadCSV(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, bom)))
	}

	var results []models.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		rec := make(models.RawRecord, len(header))
		for i, col := range header {
			if col == "" || i >= len(row) {
				continue
			}
			rec[col] = strings.TrimSpace(row[i])
		}
		if rec[models.FieldID] == "" {
			rec[models.FieldID] = uuid.NewString()
		}
		results = append(results, rec)
	}

	return results, nil
}
