package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow(name string) RawSettlementRow {
	return RawSettlementRow{
		VillageName:           name,
		Population:            "3500",
		RainfallCurrent:       "420.5",
		RainfallAverage:       "650",
		GroundwaterDepth:      "180",
		HistoricalGroundwater: "165",
		StorageCapacity:       "120000",
		CurrentStorage:        "45000",
		Latitude:              "18.52",
		Longitude:             "73.85",
	}
}

func TestParseSettlementRows(t *testing.T) {
	t.Run("valid row", func(t *testing.T) {
		settlements, issues := ParseSettlementRows([]RawSettlementRow{validRow("Ambegaon")})

		require.Empty(t, issues)
		require.Len(t, settlements, 1)
		s := settlements[0]
		assert.Equal(t, "Ambegaon", s.ID)
		assert.Equal(t, 3500, s.Population)
		assert.Equal(t, 420.5, s.RainfallCurrent)
		assert.Equal(t, 650.0, s.RainfallAverage)
		assert.Equal(t, 180.0, s.GroundwaterDepth)
		assert.Equal(t, 165.0, s.HistoricalGroundwater)
		assert.Equal(t, 120000.0, s.StorageCapacity)
		assert.Equal(t, 45000.0, s.CurrentStorage)
		assert.Equal(t, Geo{Lat: 18.52, Lon: 73.85}, s.Geo)
		assert.False(t, s.StorageClamped)
	})

	t.Run("whitespace trimmed from identifier", func(t *testing.T) {
		settlements, issues := ParseSettlementRows([]RawSettlementRow{validRow("  Wada  ")})

		require.Empty(t, issues)
		require.Len(t, settlements, 1)
		assert.Equal(t, "Wada", settlements[0].ID)
	})

	t.Run("missing identifier", func(t *testing.T) {
		row := validRow("")
		settlements, issues := ParseSettlementRows([]RawSettlementRow{row})

		assert.Empty(t, settlements)
		require.Len(t, issues, 1)
		assert.Equal(t, 0, issues[0].Row)
		assert.Equal(t, "village_name", issues[0].Field)
	})

	t.Run("non-numeric population", func(t *testing.T) {
		row := validRow("Ambegaon")
		row.Population = "many"
		settlements, issues := ParseSettlementRows([]RawSettlementRow{row})

		assert.Empty(t, settlements)
		require.Len(t, issues, 1)
		assert.Equal(t, "population", issues[0].Field)
		assert.Equal(t, "Ambegaon", issues[0].ID)
	})

	t.Run("negative storage rejected", func(t *testing.T) {
		row := validRow("Ambegaon")
		row.CurrentStorage = "-5"
		_, issues := ParseSettlementRows([]RawSettlementRow{row})

		require.Len(t, issues, 1)
		assert.Equal(t, "current_storage", issues[0].Field)
	})

	t.Run("non-finite rainfall rejected", func(t *testing.T) {
		row := validRow("Ambegaon")
		row.RainfallCurrent = "NaN"
		_, issues := ParseSettlementRows([]RawSettlementRow{row})

		require.Len(t, issues, 1)
		assert.Equal(t, "rainfall_current", issues[0].Field)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		row := validRow("Ambegaon")
		row.Latitude = "95"
		_, issues := ParseSettlementRows([]RawSettlementRow{row})

		require.Len(t, issues, 1)
		assert.Equal(t, "latitude", issues[0].Field)
	})

	t.Run("storage above capacity clamps", func(t *testing.T) {
		row := validRow("Ambegaon")
		row.StorageCapacity = "100000"
		row.CurrentStorage = "130000"
		settlements, issues := ParseSettlementRows([]RawSettlementRow{row})

		require.Empty(t, issues)
		require.Len(t, settlements, 1)
		assert.Equal(t, 100000.0, settlements[0].CurrentStorage)
		assert.True(t, settlements[0].StorageClamped)
	})

	t.Run("one bad row does not exclude the rest", func(t *testing.T) {
		bad := validRow("Khed")
		bad.GroundwaterDepth = "deep"
		rows := []RawSettlementRow{validRow("Ambegaon"), bad, validRow("Wada")}

		settlements, issues := ParseSettlementRows(rows)

		require.Len(t, settlements, 2)
		assert.Equal(t, "Ambegaon", settlements[0].ID)
		assert.Equal(t, "Wada", settlements[1].ID)
		require.Len(t, issues, 1)
		assert.Equal(t, 1, issues[0].Row)
	})

	t.Run("duplicate identifiers exclude every duplicated row", func(t *testing.T) {
		rows := []RawSettlementRow{validRow("Ambegaon"), validRow("Wada"), validRow("Ambegaon")}

		settlements, issues := ParseSettlementRows(rows)

		require.Len(t, settlements, 1)
		assert.Equal(t, "Wada", settlements[0].ID)
		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, "Ambegaon", issue.ID)
			assert.Equal(t, "duplicate identifier", issue.Reason)
		}
		assert.Equal(t, []int{0, 2}, []int{issues[0].Row, issues[1].Row})
	})

	t.Run("empty input", func(t *testing.T) {
		settlements, issues := ParseSettlementRows(nil)
		assert.Empty(t, settlements)
		assert.Empty(t, issues)
	})
}

func TestRowIssueError(t *testing.T) {
	withField := RowIssue{Row: 3, ID: "Khed", Field: "population", Reason: "missing value"}
	assert.Equal(t, `row 3 (Khed): field population: missing value`, withField.Error())

	withoutField := RowIssue{Row: 3, ID: "Khed", Reason: "duplicate identifier"}
	assert.Equal(t, `row 3 (Khed): duplicate identifier`, withoutField.Error())
}
