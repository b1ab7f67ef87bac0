package domain

import "math"

// ceilEpsilon absorbs floating-point noise in the shortfall/capacity quotient
// before taking the ceiling. Without it, a quotient like 2.0000000001 produced
// by accumulated rounding error would cost a spurious extra tanker.
const ceilEpsilon = 1e-9

// Allocation holds the computed water shortfall and the vehicles needed to
// cover it for one settlement.
type Allocation struct {
	DemandLiters    float64 `json:"demand_liters"`
	ShortfallLiters float64 `json:"shortfall_liters"`
	Vehicles        int     `json:"vehicles_required"`
}

// WaterDemand projects total water need in liters over the policy horizon.
func WaterDemand(population int, perCapitaDailyLiters float64, horizonDays int) float64 {
	return float64(population) * perCapitaDailyLiters * float64(horizonDays)
}

// ShortfallLiters is projected demand minus currently stored volume, floored
// at zero. Storage exceeding demand is a surplus, not a negative shortfall.
func ShortfallLiters(demand, currentStorage float64) float64 {
	return math.Max(0, demand-currentStorage)
}

// VehiclesRequired is the exact ceiling of shortfall over vehicle capacity:
// any nonzero remainder beyond the epsilon tolerance rounds strictly upward.
// A zero shortfall needs zero vehicles.
func VehiclesRequired(shortfall, vehicleCapacity float64) int {
	if shortfall <= 0 {
		return 0
	}
	n := math.Ceil(shortfall/vehicleCapacity - ceilEpsilon)
	if n < 0 {
		return 0
	}
	return int(n)
}

// ComputeAllocation runs the full demand, shortfall, and vehicle arithmetic
// for one settlement.
func ComputeAllocation(s Settlement, perCapitaDailyLiters float64, horizonDays int, vehicleCapacity float64) Allocation {
	demand := WaterDemand(s.Population, perCapitaDailyLiters, horizonDays)
	shortfall := ShortfallLiters(demand, s.CurrentStorage)
	return Allocation{
		DemandLiters:    demand,
		ShortfallLiters: shortfall,
		Vehicles:        VehiclesRequired(shortfall, vehicleCapacity),
	}
}
