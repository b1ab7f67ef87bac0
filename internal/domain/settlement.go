package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawSettlementRow is one unparsed row from the tabular dataset. All fields
// are strings exactly as read from the source; validation happens in
// [ParseSettlementRows].
type RawSettlementRow struct {
	VillageName           string `json:"village_name"`
	Population            string `json:"population"`
	RainfallCurrent       string `json:"rainfall_current"`
	RainfallAverage       string `json:"rainfall_average"`
	GroundwaterDepth      string `json:"groundwater_depth"`
	HistoricalGroundwater string `json:"historical_groundwater"`
	StorageCapacity       string `json:"storage_capacity"`
	CurrentStorage        string `json:"current_storage"`
	Latitude              string `json:"latitude"`
	Longitude             string `json:"longitude"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Settlement is one monitored unit after parsing and validation.
type Settlement struct {
	ID                    string  `json:"id"`
	Population            int     `json:"population"`
	RainfallCurrent       float64 `json:"rainfall_current"`
	RainfallAverage       float64 `json:"rainfall_average"`
	GroundwaterDepth      float64 `json:"groundwater_depth"`
	HistoricalGroundwater float64 `json:"historical_groundwater"`
	StorageCapacity       float64 `json:"storage_capacity"`
	CurrentStorage        float64 `json:"current_storage"`
	Geo                   Geo     `json:"geo"`

	// StorageClamped records that current_storage exceeded storage_capacity
	// in the source row and was clamped down to capacity.
	StorageClamped bool `json:"storage_clamped,omitempty"`
}

// RowIssue describes why a single dataset row was excluded from the plan.
type RowIssue struct {
	Row    int    `json:"row"` // 0-based position in the input table
	ID     string `json:"id,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (i RowIssue) Error() string {
	if i.Field != "" {
		return fmt.Sprintf("row %d (%s): field %s: %s", i.Row, i.ID, i.Field, i.Reason)
	}
	return fmt.Sprintf("row %d (%s): %s", i.Row, i.ID, i.Reason)
}

// ParseSettlementRows converts raw rows into validated settlements. Rows that
// fail validation are reported as issues and excluded; one bad row never
// contaminates the rest of the batch. Duplicate identifiers exclude every row
// bearing the duplicated name.
func ParseSettlementRows(rows []RawSettlementRow) ([]Settlement, []RowIssue) {
	parsed := make([]Settlement, 0, len(rows))
	parsedRow := make([]int, 0, len(rows))
	var issues []RowIssue

	for i, row := range rows {
		s, issue := parseSettlementRow(i, row)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		parsed = append(parsed, s)
		parsedRow = append(parsedRow, i)
	}

	counts := make(map[string]int, len(parsed))
	for _, s := range parsed {
		counts[s.ID]++
	}

	settlements := make([]Settlement, 0, len(parsed))
	for j, s := range parsed {
		if counts[s.ID] > 1 {
			issues = append(issues, RowIssue{
				Row:    parsedRow[j],
				ID:     s.ID,
				Field:  "village_name",
				Reason: "duplicate identifier",
			})
			continue
		}
		settlements = append(settlements, s)
	}

	return settlements, issues
}

func parseSettlementRow(row int, raw RawSettlementRow) (Settlement, *RowIssue) {
	id := strings.TrimSpace(raw.VillageName)
	if id == "" {
		return Settlement{}, &RowIssue{Row: row, Field: "village_name", Reason: "missing identifier"}
	}

	fail := func(field, reason string) (Settlement, *RowIssue) {
		return Settlement{}, &RowIssue{Row: row, ID: id, Field: field, Reason: reason}
	}

	population, err := parseNonNegativeInt(raw.Population)
	if err != nil {
		return fail("population", err.Error())
	}

	numeric := []struct {
		field string
		raw   string
		dst   *float64
	}{
		{"rainfall_current", raw.RainfallCurrent, nil},
		{"rainfall_average", raw.RainfallAverage, nil},
		{"groundwater_depth", raw.GroundwaterDepth, nil},
		{"historical_groundwater", raw.HistoricalGroundwater, nil},
		{"storage_capacity", raw.StorageCapacity, nil},
		{"current_storage", raw.CurrentStorage, nil},
	}
	values := make([]float64, len(numeric))
	for k, col := range numeric {
		v, err := parseNonNegativeFloat(col.raw)
		if err != nil {
			return fail(col.field, err.Error())
		}
		values[k] = v
	}

	lat, err := parseBoundedFloat(raw.Latitude, -90, 90)
	if err != nil {
		return fail("latitude", err.Error())
	}
	lon, err := parseBoundedFloat(raw.Longitude, -180, 180)
	if err != nil {
		return fail("longitude", err.Error())
	}

	s := Settlement{
		ID:                    id,
		Population:            population,
		RainfallCurrent:       values[0],
		RainfallAverage:       values[1],
		GroundwaterDepth:      values[2],
		HistoricalGroundwater: values[3],
		StorageCapacity:       values[4],
		CurrentStorage:        values[5],
		Geo:                   Geo{Lat: lat, Lon: lon},
	}

	// Clamp rather than reject: a storage sensor reading above capacity must
	// never flow downstream as a negative storage deficit.
	if s.CurrentStorage > s.StorageCapacity {
		s.CurrentStorage = s.StorageCapacity
		s.StorageClamped = true
	}

	return s, nil
}

func parseNonNegativeInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value: %d", v)
	}
	return v, nil
}

func parseNonNegativeFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value: %g", v)
	}
	return v, nil
}

func parseBoundedFloat(s string, min, max float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("out of range [%g, %g]: %g", min, max, v)
	}
	return v, nil
}
