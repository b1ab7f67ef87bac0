package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
)

// fingerprint produces a deterministic ID for an input table under a given
// parameter set. Identical snapshots hash identically, which makes the plan
// cache and the plan store's idempotent upserts work without coordination.
func fingerprint(rows []domain.RawSettlementRow, p Params) string {
	h := sha256.New()

	fmt.Fprintf(h, "need=%g|horizon=%d|capacity=%g|ws=%g|wp=%g|topn=%d|th=%g/%g/%g",
		p.PerCapitaDailyLiters, p.HorizonDays, p.VehicleCapacityLiters,
		p.Weights.Stress, p.Weights.Population, p.RouteTopN,
		p.Thresholds.Low, p.Thresholds.Moderate, p.Thresholds.High,
	)
	if p.Depot != nil {
		fmt.Fprintf(h, "|depot=%.6f,%.6f", p.Depot.Lat, p.Depot.Lon)
	}
	fmt.Fprintln(h)

	for _, r := range rows {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n",
			r.VillageName, r.Population,
			r.RainfallCurrent, r.RainfallAverage,
			r.GroundwaterDepth, r.HistoricalGroundwater,
			r.StorageCapacity, r.CurrentStorage,
			r.Latitude, r.Longitude,
		)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
