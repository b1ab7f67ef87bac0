// Package postgres persists allocation plan history. The store is optional;
// when disabled, plans live only in memory.
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/couchcryptid/water-allocation-engine/internal/engine"
)

// Store writes allocation plans to Postgres. Plan fingerprints are
// deterministic, so re-saving the same snapshot is an idempotent no-op
// (ON CONFLICT DO NOTHING).
type Store struct {
	db *sqlx.DB
}

// New connects to Postgres and verifies the connection.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const insertPlan = `
	INSERT INTO allocation_plans (fingerprint, generated_at, estimator_source,
		settlements, high_stress, vehicles_required)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (fingerprint) DO NOTHING`

const insertEntry = `
	INSERT INTO allocation_plan_entries (plan_fingerprint, rank, settlement_id,
		population, stress_score, stress_category, shortfall_liters,
		vehicles_required, priority_score, latitude, longitude)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (plan_fingerprint, settlement_id) DO NOTHING`

// SavePlan persists the plan header and every ranked entry in one
// transaction.
func (s *Store) SavePlan(ctx context.Context, plan *engine.Plan) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, insertPlan,
		plan.Fingerprint, plan.GeneratedAt, plan.EstimatorSource,
		plan.Totals.Settlements, plan.Totals.HighStress, plan.Totals.VehiclesRequired,
	)
	if err != nil {
		return fmt.Errorf("insert plan %s: %w", plan.Fingerprint, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already stored; entries are identical by construction.
		return tx.Commit()
	}

	for _, a := range plan.Settlements {
		if _, err := tx.ExecContext(ctx, insertEntry,
			plan.Fingerprint, a.Rank, a.ID,
			a.Population, a.StressScore, a.StressCategory, a.ShortfallLiters,
			a.Vehicles, a.PriorityScore, a.Geo.Lat, a.Geo.Lon,
		); err != nil {
			return fmt.Errorf("insert plan entry %s/%s: %w", plan.Fingerprint, a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan %s: %w", plan.Fingerprint, err)
	}
	return nil
}
