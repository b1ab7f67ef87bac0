// Command validate performs end-to-end integrity checks on an allocation
// plan built from a settlement dataset CSV. It rebuilds the plan with the
// deterministic fallback estimator, then independently recomputes every
// derived figure: allocation arithmetic, score bounds and categories,
// ranking order, and route geometry.
//
// Usage:
//
//	go run ./cmd/validate -dataset data/mock/settlements.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-allocation-engine/internal/adapter/dataset"
	"github.com/couchcryptid/water-allocation-engine/internal/domain"
	"github.com/couchcryptid/water-allocation-engine/internal/engine"
	"github.com/couchcryptid/water-allocation-engine/internal/estimator"
	"github.com/couchcryptid/water-allocation-engine/internal/observability"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetPath := flag.String("dataset", "", "path to the settlement dataset CSV")
	seed := flag.Int64("seed", 42, "fallback estimator seed")
	samples := flag.Int("samples", estimator.DefaultFallbackSamples, "fallback synthetic sample count")
	flag.Parse()

	if *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*datasetPath, *seed, *samples); code != 0 {
		os.Exit(code)
	}
}

func run(datasetPath string, seed int64, samples int) int {
	// Fixed clock for a reproducible plan timestamp.
	engine.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.January, 1, 6, 0, 0, 0, time.UTC),
	))
	defer engine.SetClock(nil)

	fmt.Println("=== Allocation Plan Integrity Validation ===")
	fmt.Println()

	rows, err := dataset.ReadFile(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	est, err := estimator.NewFallback(seed, samples)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: bootstrap fallback estimator: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	params := engine.Params{
		PerCapitaDailyLiters:  50,
		HorizonDays:           365,
		VehicleCapacityLiters: 10_000,
		Weights:               domain.DefaultPriorityWeights,
		Thresholds:            domain.DefaultStressThresholds,
		RouteTopN:             5,
	}

	eng := engine.New(est, params, logger, observability.NewMetrics(), 1)
	plan, err := eng.BuildPlan(context.Background(), rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build plan: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDataset(plan, len(rows)),
		validateScores(plan, params),
		validateAllocations(plan, params),
		validateRanking(plan, params),
		validateRoute(plan, params),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d input, %d scored, %d excluded; estimator %s\n",
		len(rows), len(plan.Settlements), len(plan.Excluded), plan.EstimatorSource)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateDataset checks the scored/excluded split covers the input exactly.
func validateDataset(plan *engine.Plan, inputRows int) *phase {
	p := &phase{name: "Dataset accounting"}

	if got := len(plan.Settlements) + len(plan.Excluded); got != inputRows {
		p.errorf("scored (%d) + excluded (%d) = %d, want %d input rows",
			len(plan.Settlements), len(plan.Excluded), got, inputRows)
	}
	for _, issue := range plan.Excluded {
		if issue.Reason == "" {
			p.errorf("excluded row %d has no reason", issue.Row)
		}
	}

	seen := make(map[string]bool, len(plan.Settlements))
	for _, a := range plan.Settlements {
		if seen[a.ID] {
			p.errorf("duplicate identifier %q survived parsing", a.ID)
		}
		seen[a.ID] = true
	}
	return p
}

// validateScores checks stress scores are clipped and categorized correctly.
func validateScores(plan *engine.Plan, params engine.Params) *phase {
	p := &phase{name: "Stress scores"}

	for _, a := range plan.Settlements {
		if a.StressScore < 0 || a.StressScore > 1 {
			p.errorf("%s: stress score %g outside [0,1]", a.ID, a.StressScore)
		}
		if want := params.Thresholds.Categorize(a.StressScore); a.StressCategory != want {
			p.errorf("%s: category %q, want %q for score %g", a.ID, a.StressCategory, want, a.StressScore)
		}
		if a.EstimatorSource != plan.EstimatorSource {
			p.errorf("%s: estimator source %q differs from plan source %q",
				a.ID, a.EstimatorSource, plan.EstimatorSource)
		}
	}
	return p
}

// validateAllocations independently recomputes demand, shortfall, and
// vehicle counts from the raw settlement fields.
func validateAllocations(plan *engine.Plan, params engine.Params) *phase {
	p := &phase{name: "Allocation arithmetic"}

	var totalVehicles int
	for _, a := range plan.Settlements {
		want := domain.ComputeAllocation(a.Settlement,
			params.PerCapitaDailyLiters, params.HorizonDays, params.VehicleCapacityLiters)

		if a.DemandLiters != want.DemandLiters {
			p.errorf("%s: demand %g, want %g", a.ID, a.DemandLiters, want.DemandLiters)
		}
		if a.ShortfallLiters != want.ShortfallLiters {
			p.errorf("%s: shortfall %g, want %g", a.ID, a.ShortfallLiters, want.ShortfallLiters)
		}
		if a.ShortfallLiters < 0 {
			p.errorf("%s: negative shortfall %g", a.ID, a.ShortfallLiters)
		}
		if a.Vehicles != want.Vehicles {
			p.errorf("%s: vehicles %d, want %d", a.ID, a.Vehicles, want.Vehicles)
		}
		totalVehicles += a.Vehicles
	}

	if plan.Totals.VehiclesRequired != totalVehicles {
		p.errorf("totals report %d vehicles, settlements sum to %d",
			plan.Totals.VehiclesRequired, totalVehicles)
	}
	return p
}

// validateRanking checks the total order and gap-free rank assignment.
func validateRanking(plan *engine.Plan, params engine.Params) *phase {
	p := &phase{name: "Priority ranking"}

	for i, a := range plan.Settlements {
		if a.Rank != i+1 {
			p.errorf("position %d holds rank %d", i, a.Rank)
		}
		if want := params.Weights.Score(a.StressScore, a.NormalizedPopulation); a.PriorityScore != want {
			p.errorf("%s: priority %g, want %g", a.ID, a.PriorityScore, want)
		}
		if i == 0 {
			continue
		}
		prev := plan.Settlements[i-1]
		switch {
		case prev.PriorityScore > a.PriorityScore:
		case prev.PriorityScore < a.PriorityScore:
			p.errorf("rank %d priority %g exceeds rank %d priority %g",
				a.Rank, a.PriorityScore, prev.Rank, prev.PriorityScore)
		case prev.StressScore > a.StressScore:
		case prev.StressScore < a.StressScore:
			p.errorf("rank %d breaks stress tiebreak against rank %d", a.Rank, prev.Rank)
		case prev.ID >= a.ID:
			p.errorf("rank %d breaks identifier tiebreak against rank %d", a.Rank, prev.Rank)
		}
	}
	return p
}

// validateRoute recomputes leg distances and checks the stop set matches the
// top-ranked settlements.
func validateRoute(plan *engine.Plan, params engine.Params) *phase {
	p := &phase{name: "Route geometry"}

	topN := params.RouteTopN
	if topN > len(plan.Settlements) {
		topN = len(plan.Settlements)
	}
	if len(plan.Route.Stops) != topN {
		p.errorf("route has %d stops, want %d", len(plan.Route.Stops), topN)
	}

	top := make(map[string]domain.Assessment, topN)
	for _, a := range plan.Settlements[:topN] {
		top[a.ID] = a
	}

	current := plan.Route.Depot
	var total float64
	for i, stop := range plan.Route.Stops {
		a, ok := top[stop.ID]
		if !ok {
			p.errorf("stop %d (%s) is not a top-%d settlement", i, stop.ID, topN)
			continue
		}
		if stop.Vehicles != a.Vehicles {
			p.errorf("stop %s carries %d vehicles, assessment says %d", stop.ID, stop.Vehicles, a.Vehicles)
		}
		if leg := domain.Haversine(current, stop.Geo); math.Abs(leg-stop.LegKm) > 1e-9 {
			p.errorf("stop %s leg %g km, recomputed %g km", stop.ID, stop.LegKm, leg)
		}
		current = stop.Geo
		total += stop.LegKm
	}
	if math.Abs(total-plan.Route.TotalKm) > 1e-6 {
		p.errorf("route total %g km, legs sum to %g km", plan.Route.TotalKm, total)
	}
	return p
}
