package domain

// Features holds the derived stress-signal features for one settlement.
// A Features value is a view over its source table: it is recomputed whenever
// the table changes and never persisted on its own.
type Features struct {
	// RainfallDeviation is current - historical average, in millimeters.
	// Negative values carry the drought signal and are not clamped.
	RainfallDeviation float64 `json:"rainfall_deviation"`

	// GroundwaterTrend is historical depth - current depth, in meters.
	// Negative means the depth has grown and the water table dropped
	// (worsening).
	GroundwaterTrend float64 `json:"groundwater_trend"`

	// NormalizedPopulation is min-max scaled over the full settlement set.
	NormalizedPopulation float64 `json:"normalized_population"`
}

// DeriveFeatures computes the stress-signal features for every settlement.
// It is a function of the whole table because population normalization needs
// the set-wide min and max. The result is index-aligned with the input, which
// is not modified.
func DeriveFeatures(settlements []Settlement) []Features {
	if len(settlements) == 0 {
		return nil
	}

	minPop, maxPop := settlements[0].Population, settlements[0].Population
	for _, s := range settlements[1:] {
		if s.Population < minPop {
			minPop = s.Population
		}
		if s.Population > maxPop {
			maxPop = s.Population
		}
	}
	popRange := float64(maxPop - minPop)

	features := make([]Features, len(settlements))
	for i, s := range settlements {
		f := Features{
			RainfallDeviation: s.RainfallCurrent - s.RainfallAverage,
			GroundwaterTrend:  s.HistoricalGroundwater - s.GroundwaterDepth,
		}
		// All-equal populations normalize to 0 for every row; there is no
		// relative size signal to extract and no division by zero.
		if popRange > 0 {
			f.NormalizedPopulation = float64(s.Population-minPop) / popRange
		}
		features[i] = f
	}

	return features
}
