// Package engine orchestrates the allocation-scoring pipeline: feature
// derivation, stress estimation, shortfall arithmetic, priority ranking, and
// route sequencing. Every stage is a pure, synchronous transformation over an
// in-memory snapshot of the settlement table; concurrent builds over
// different snapshots are safe because no stage mutates caller-supplied data.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
	"github.com/couchcryptid/water-allocation-engine/internal/estimator"
	"github.com/couchcryptid/water-allocation-engine/internal/observability"
)

// Params are the engine-wide configuration constants consumed by the
// pipeline stages. They are validated at config load, before any per-row
// work.
type Params struct {
	PerCapitaDailyLiters  float64
	HorizonDays           int
	VehicleCapacityLiters float64
	Weights               domain.PriorityWeights
	Thresholds            domain.StressThresholds
	RouteTopN             int

	// Depot is the delivery route origin. Nil means derive it as the mean of
	// all settlement coordinates in the snapshot.
	Depot *domain.Geo
}

// Totals are plan-level aggregates for reporting.
type Totals struct {
	Settlements            int   `json:"settlements"`
	HighStress             int   `json:"high_stress"`
	VehiclesRequired       int   `json:"vehicles_required"`
	TotalPopulation        int64 `json:"total_population"`
	PopulationAtHighStress int64 `json:"population_at_high_stress"`
}

// Plan is one immutable allocation plan snapshot: the ranked settlement
// assessments, the rows excluded for data-quality reasons, the delivery
// route over the top-ranked settlements, and aggregates.
type Plan struct {
	Fingerprint     string              `json:"fingerprint"`
	GeneratedAt     time.Time           `json:"generated_at"`
	EstimatorSource string              `json:"estimator_source"`
	Settlements     []domain.Assessment `json:"settlements"`
	Excluded        []domain.RowIssue   `json:"excluded,omitempty"`
	Route           domain.Route        `json:"route"`
	Totals          Totals              `json:"totals"`
}

// Engine runs the pipeline with a fixed estimator and parameter set.
type Engine struct {
	est     estimator.Estimator
	params  Params
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   *planCache

	latest atomic.Pointer[Plan]
}

// New creates an Engine. The estimator variant was selected once at startup;
// the engine only reports which one is active.
func New(est estimator.Estimator, params Params, logger *slog.Logger, metrics *observability.Metrics, cacheSize int) *Engine {
	if cacheSize < 1 {
		cacheSize = 1
	}
	e := &Engine{
		est:     est,
		params:  params,
		logger:  logger,
		metrics: metrics,
		cache:   newPlanCache(cacheSize),
	}
	if est.Source() == estimator.SourceFallback {
		metrics.FallbackEstimatorActive.Set(1)
	} else {
		metrics.FallbackEstimatorActive.Set(0)
	}
	return e
}

// CheckReadiness returns nil once the engine has built at least one plan.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if e.latest.Load() == nil {
		return errors.New("no allocation plan has been built yet")
	}
	return nil
}

// Latest returns the most recently built plan, or nil before the first
// build. Plans are immutable snapshots; callers must not modify them.
func (e *Engine) Latest() *Plan {
	return e.latest.Load()
}

// BuildPlan runs the full pipeline over the given table snapshot and
// publishes the result as the engine's latest plan.
func (e *Engine) BuildPlan(ctx context.Context, rows []domain.RawSettlementRow) (*Plan, error) {
	plan, err := e.build(ctx, rows)
	if err != nil {
		return nil, err
	}
	e.latest.Store(plan)
	return plan, nil
}

// Preview runs the pipeline over a caller-supplied what-if snapshot without
// touching the engine's latest plan. Safe to call concurrently with BuildPlan
// and other Previews: each invocation owns its own table copy.
func (e *Engine) Preview(ctx context.Context, rows []domain.RawSettlementRow) (*Plan, error) {
	return e.build(ctx, rows)
}

func (e *Engine) build(_ context.Context, rows []domain.RawSettlementRow) (*Plan, error) {
	start := time.Now()

	fp := fingerprint(rows, e.params)
	if cached, ok := e.cache.get(fp); ok {
		e.metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	e.metrics.PlanCacheLookups.WithLabelValues("miss").Inc()

	settlements, issues := domain.ParseSettlementRows(rows)

	// Rows whose feature vector is not finite fail individually, the same
	// way malformed source rows do.
	featureRows := make([][]float64, 0, len(settlements))
	kept := make([]domain.Settlement, 0, len(settlements))
	for i, s := range settlements {
		row := estimator.FeatureRow(s)
		if !estimator.ValidFeatureRow(row) {
			issues = append(issues, domain.RowIssue{
				Row:    i,
				ID:     s.ID,
				Reason: "non-finite feature vector",
			})
			continue
		}
		featureRows = append(featureRows, row)
		kept = append(kept, s)
	}

	features := domain.DeriveFeatures(kept)

	assessments := make([]domain.Assessment, len(kept))
	if len(kept) > 0 {
		raw, err := e.est.Predict(featureRows)
		if err != nil {
			return nil, fmt.Errorf("predict stress scores: %w", err)
		}

		for i, s := range kept {
			score := domain.ClipScore(raw[i])
			a := domain.Assessment{
				Settlement:      s,
				Features:        features[i],
				StressScore:     score,
				EstimatorSource: string(e.est.Source()),
				StressCategory:  e.params.Thresholds.Categorize(score),
				Allocation:      domain.ComputeAllocation(s, e.params.PerCapitaDailyLiters, e.params.HorizonDays, e.params.VehicleCapacityLiters),
			}
			a.PriorityScore = e.params.Weights.Score(a.StressScore, a.NormalizedPopulation)
			assessments[i] = a

			if s.StorageClamped {
				e.logger.Warn("current storage exceeded capacity, clamped",
					"settlement", s.ID,
					"capacity_liters", s.StorageCapacity,
				)
			}
		}
	}

	ranked := domain.RankByPriority(assessments)
	route := e.sequenceRoute(ranked)

	plan := &Plan{
		Fingerprint:     fp,
		GeneratedAt:     clock.Now(),
		EstimatorSource: string(e.est.Source()),
		Settlements:     ranked,
		Excluded:        issues,
		Route:           route,
		Totals:          computeTotals(ranked, e.params.Thresholds),
	}

	e.cache.put(fp, plan)
	e.observeBuild(plan, start)

	return plan, nil
}

func (e *Engine) sequenceRoute(ranked []domain.Assessment) domain.Route {
	n := e.params.RouteTopN
	if n > len(ranked) {
		n = len(ranked)
	}
	if n <= 0 {
		return domain.Route{Depot: e.depot(ranked)}
	}
	return domain.SequenceRoute(e.depot(ranked), ranked[:n])
}

// depot returns the configured route origin, or the mean of all settlement
// coordinates when none is configured.
func (e *Engine) depot(ranked []domain.Assessment) domain.Geo {
	if e.params.Depot != nil {
		return *e.params.Depot
	}
	if len(ranked) == 0 {
		return domain.Geo{}
	}
	var lat, lon float64
	for _, a := range ranked {
		lat += a.Geo.Lat
		lon += a.Geo.Lon
	}
	return domain.Geo{
		Lat: lat / float64(len(ranked)),
		Lon: lon / float64(len(ranked)),
	}
}

func computeTotals(ranked []domain.Assessment, th domain.StressThresholds) Totals {
	t := Totals{Settlements: len(ranked)}
	for _, a := range ranked {
		t.VehiclesRequired += a.Vehicles
		t.TotalPopulation += int64(a.Population)
		if a.StressScore >= th.High {
			t.HighStress++
			t.PopulationAtHighStress += int64(a.Population)
		}
	}
	return t
}

func (e *Engine) observeBuild(plan *Plan, start time.Time) {
	e.metrics.PlansBuilt.Inc()
	e.metrics.PlanBuildDuration.Observe(time.Since(start).Seconds())
	e.metrics.SettlementsScored.Add(float64(len(plan.Settlements)))
	e.metrics.DataQualityErrors.Add(float64(len(plan.Excluded)))
	e.metrics.VehiclesRequired.Set(float64(plan.Totals.VehiclesRequired))

	e.logger.Info("allocation plan built",
		"fingerprint", plan.Fingerprint,
		"settlements", len(plan.Settlements),
		"excluded", len(plan.Excluded),
		"vehicles_required", plan.Totals.VehiclesRequired,
		"estimator_source", plan.EstimatorSource,
	)
}
