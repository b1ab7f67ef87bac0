// Package dataset reads the settlement readings table from disk. Parsing and
// validation of individual values stay in the domain package; this adapter
// only maps CSV columns to raw string rows.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
)

// Required column headers in the source CSV. Column order is free; headers
// are matched by name.
var requiredColumns = []string{
	"village_name",
	"population",
	"rainfall_current",
	"rainfall_average",
	"groundwater_depth",
	"historical_groundwater",
	"storage_capacity",
	"current_storage",
	"latitude",
	"longitude",
}

// ReadFile loads the settlements CSV at path into raw rows. A missing file
// or missing required column is an error; malformed cell values are not,
// they surface later as per-row data-quality issues.
func ReadFile(path string) ([]domain.RawSettlementRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return rows, nil
}

// Read parses CSV data from r into raw settlement rows.
func Read(r io.Reader) ([]domain.RawSettlementRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Ragged rows become per-row data-quality issues, not a fatal file error.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	cell := func(record []string, col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []domain.RawSettlementRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, domain.RawSettlementRow{
			VillageName:           cell(record, "village_name"),
			Population:            cell(record, "population"),
			RainfallCurrent:       cell(record, "rainfall_current"),
			RainfallAverage:       cell(record, "rainfall_average"),
			GroundwaterDepth:      cell(record, "groundwater_depth"),
			HistoricalGroundwater: cell(record, "historical_groundwater"),
			StorageCapacity:       cell(record, "storage_capacity"),
			CurrentStorage:        cell(record, "current_storage"),
			Latitude:              cell(record, "latitude"),
			Longitude:             cell(record, "longitude"),
		})
	}
	return rows, nil
}
