package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
	"github.com/couchcryptid/water-allocation-engine/internal/engine"
)

type fakeProvider struct {
	plan       *engine.Plan
	ready      error
	previewErr error
}

func (f *fakeProvider) Latest() *engine.Plan { return f.plan }

func (f *fakeProvider) Preview(_ context.Context, rows []domain.RawSettlementRow) (*engine.Plan, error) {
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	settlements := make([]domain.Assessment, len(rows))
	for i, r := range rows {
		settlements[i] = domain.Assessment{Settlement: domain.Settlement{ID: r.VillageName}, Rank: i + 1}
	}
	return &engine.Plan{Fingerprint: "preview", Settlements: settlements}, nil
}

func (f *fakeProvider) CheckReadiness(_ context.Context) error { return f.ready }

func testServer(provider PlanProvider) *Server {
	return NewServer(":0", provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testPlan() *engine.Plan {
	return &engine.Plan{
		Fingerprint:     "abc123",
		GeneratedAt:     time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC),
		EstimatorSource: "fallback",
		Settlements: []domain.Assessment{
			{
				Settlement:     domain.Settlement{ID: "Ambegaon", Population: 3500, Geo: domain.Geo{Lat: 18.52, Lon: 73.85}},
				StressScore:    0.82,
				StressCategory: domain.StressCritical,
				Allocation:     domain.Allocation{ShortfallLiters: 120000, Vehicles: 12},
				PriorityScore:  0.74,
				Rank:           1,
			},
		},
		Route: domain.Route{
			Depot:   domain.Geo{Lat: 18.5, Lon: 73.8},
			Stops:   []domain.RouteStop{{ID: "Ambegaon", Vehicles: 12, LegKm: 5.2}},
			TotalKm: 5.2,
		},
		Totals: engine.Totals{Settlements: 1, VehiclesRequired: 12},
	}
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, testServer(&fakeProvider{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{}), "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{ready: errors.New("no plan yet")}), "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "no plan yet")
	})
}

func TestHandlePlan(t *testing.T) {
	t.Run("serves latest plan", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{plan: testPlan()}), "/api/plan")

		require.Equal(t, http.StatusOK, rec.Code)

		var got engine.Plan
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "abc123", got.Fingerprint)
		require.Len(t, got.Settlements, 1)
		assert.Equal(t, "Ambegaon", got.Settlements[0].ID)
		assert.Equal(t, 12, got.Totals.VehiclesRequired)
	})

	t.Run("503 before first build", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{}), "/api/plan")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleRoute(t *testing.T) {
	t.Run("serves route only", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{plan: testPlan()}), "/api/route")

		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.Route
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Stops, 1)
		assert.Equal(t, "Ambegaon", got.Stops[0].ID)
		assert.Equal(t, 5.2, got.TotalKm)
	})

	t.Run("503 before first build", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{}), "/api/route")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandlePlanCSV(t *testing.T) {
	rec := get(t, testServer(&fakeProvider{plan: testPlan()}), "/api/plan.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "allocation_plan_20260301_093000.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(exportColumns, ","), lines[0])
	assert.Equal(t, "1,Ambegaon,3500,0.8200,120000,12,0.7400,Critical,18.520000,73.850000", lines[1])
}

func TestHandleSimulate(t *testing.T) {
	t.Run("builds what-if plan", func(t *testing.T) {
		body := `{"rows":[{"village_name":"Wada","population":"2100"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		testServer(&fakeProvider{}).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got engine.Plan
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "preview", got.Fingerprint)
		require.Len(t, got.Settlements, 1)
		assert.Equal(t, "Wada", got.Settlements[0].ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"rows":`))
		rec := httptest.NewRecorder()
		testServer(&fakeProvider{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"rows":[]}`))
		rec := httptest.NewRecorder()
		testServer(&fakeProvider{previewErr: errors.New("estimator broke")}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "estimator broke")
	})

	t.Run("GET not allowed", func(t *testing.T) {
		rec := get(t, testServer(&fakeProvider{}), "/api/simulate")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMetricsRoute(t *testing.T) {
	rec := get(t, testServer(&fakeProvider{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}
