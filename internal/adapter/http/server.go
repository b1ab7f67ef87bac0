package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/water-allocation-engine/internal/domain"
	"github.com/couchcryptid/water-allocation-engine/internal/engine"
)

// PlanProvider serves plans to the HTTP layer.
type PlanProvider interface {
	Latest() *engine.Plan
	Preview(ctx context.Context, rows []domain.RawSettlementRow) (*engine.Plan, error)
	CheckReadiness(ctx context.Context) error
}

// exportColumns is the CSV export column order, matching the allocation plan
// layout district operators already consume.
var exportColumns = []string{
	"rank",
	"village_name",
	"population",
	"stress_score",
	"water_shortfall",
	"tankers_required",
	"priority_score",
	"stress_category",
	"latitude",
	"longitude",
}

// Server exposes health, readiness, metrics, and allocation plan endpoints.
type Server struct {
	httpServer *http.Server
	provider   PlanProvider
	logger     *slog.Logger
}

// NewServer creates the HTTP server with health, metrics, and plan routes.
func NewServer(addr string, provider PlanProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/plan.csv", s.handlePlanCSV)
	mux.HandleFunc("GET /api/route", s.handleRoute)
	mux.HandleFunc("POST /api/simulate", s.handleSimulate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.provider.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handlePlan(w http.ResponseWriter, _ *http.Request) {
	plan := s.provider.Latest()
	if plan == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no plan available yet"})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRoute(w http.ResponseWriter, _ *http.Request) {
	plan := s.provider.Latest()
	if plan == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no plan available yet"})
		return
	}
	writeJSON(w, http.StatusOK, plan.Route)
}

func (s *Server) handlePlanCSV(w http.ResponseWriter, _ *http.Request) {
	plan := s.provider.Latest()
	if plan == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no plan available yet"})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="allocation_plan_%s.csv"`, plan.GeneratedAt.Format("20060102_150405")))

	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		s.logger.Warn("csv export failed", "error", err)
		return
	}
	for _, a := range plan.Settlements {
		record := []string{
			fmt.Sprintf("%d", a.Rank),
			a.ID,
			fmt.Sprintf("%d", a.Population),
			fmt.Sprintf("%.4f", a.StressScore),
			fmt.Sprintf("%.0f", a.ShortfallLiters),
			fmt.Sprintf("%d", a.Vehicles),
			fmt.Sprintf("%.4f", a.PriorityScore),
			a.StressCategory,
			fmt.Sprintf("%.6f", a.Geo.Lat),
			fmt.Sprintf("%.6f", a.Geo.Lon),
		}
		if err := cw.Write(record); err != nil {
			s.logger.Warn("csv export failed", "error", err)
			return
		}
	}
	cw.Flush()
}

// handleSimulate builds a what-if plan over a caller-supplied row set. The
// live plan is untouched; each simulation runs on its own snapshot.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rows []domain.RawSettlementRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("decode request: %v", err)})
		return
	}

	plan, err := s.provider.Preview(r.Context(), body.Rows)
	if err != nil {
		s.logger.Error("simulation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
