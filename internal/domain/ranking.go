package domain

import "sort"

// Assessment is the fully enriched per-settlement record: raw readings,
// derived features, stress score, allocation figures, and rank. Each pipeline
// stage fills in its own slice of fields and hands a new snapshot to the
// next; no stage mutates a predecessor's output in place.
type Assessment struct {
	Settlement
	Features

	StressScore     float64 `json:"stress_score"`
	EstimatorSource string  `json:"estimator_source"`
	StressCategory  string  `json:"stress_category"`

	Allocation

	PriorityScore float64 `json:"priority_score"`
	Rank          int     `json:"rank"`
}

// PriorityWeights combine stress and relative population size into the
// allocation ordering key. The two weights must sum to 1; that is enforced at
// configuration load, before any per-row work.
type PriorityWeights struct {
	Stress     float64
	Population float64
}

// DefaultPriorityWeights favor stress over population 70/30.
var DefaultPriorityWeights = PriorityWeights{Stress: 0.7, Population: 0.3}

// Score computes the weighted priority for one settlement. Both inputs are in
// [0,1], so the result is too.
func (w PriorityWeights) Score(stressScore, normalizedPopulation float64) float64 {
	return w.Stress*stressScore + w.Population*normalizedPopulation
}

// RankByPriority returns a new slice ordered by priority score descending and
// assigns 1-based ranks with no gaps. The order is total and reproducible:
// exact priority ties fall back to stress score descending, then to
// identifier ascending. The input slice is not modified.
func RankByPriority(assessments []Assessment) []Assessment {
	ranked := make([]Assessment, len(assessments))
	copy(ranked, assessments)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.StressScore != b.StressScore {
			return a.StressScore > b.StressScore
		}
		return a.ID < b.ID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}
