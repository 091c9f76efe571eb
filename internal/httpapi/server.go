// Package httpapi exposes the engine over HTTP: evaluate and scan
// endpoints, Prometheus metrics, a health probe, and a websocket stream of
// completed decisions.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quantrun/quantrun/internal/engine"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/metrics"
)

// BreakerStater reports the market data circuit breaker, for /healthz.
type BreakerStater interface {
	BreakerState() string
}

// Server is the HTTP surface around one engine instance.
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Registry
	breaker BreakerStater
	hub     *Hub
	router  *mux.Router
}

// NewServer wires the routes. breaker may be nil when the data source has
// no breaker (offline fixtures).
func NewServer(eng *engine.Engine, m *metrics.Registry, breaker BreakerStater) *Server {
	s := &Server{
		engine:  eng,
		metrics: m,
		breaker: breaker,
		hub:     NewHub(),
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/v1/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/scan", s.handleScan).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/screen", s.handleScreen).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/decisions", s.hub.HandleSubscribe)
	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type evaluateRequest struct {
	Ticker   string                `json:"ticker"`
	AsOf     *time.Time            `json:"as_of,omitempty"`
	Position gates.PositionContext `json:"position"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticker == "" {
		httpError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	decision := s.engine.Evaluate(r.Context(), req.Ticker, asOf, req.Position)
	s.hub.Broadcast(decision)
	writeJSON(w, http.StatusOK, decision)
}

type scanRequest struct {
	Tickers  []string              `json:"tickers"`
	AsOf     *time.Time            `json:"as_of,omitempty"`
	Position gates.PositionContext `json:"position"`
}

// handleScan returns the ranked priority scores of a batch.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tickers) == 0 {
		httpError(w, http.StatusBadRequest, "tickers are required")
		return
	}
	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	scores := s.engine.ScoreBatch(r.Context(), req.Tickers, asOf)
	writeJSON(w, http.StatusOK, scores)
}

// handleScreen runs full evaluations for a batch and streams each decision
// to websocket subscribers as well as returning the set.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tickers) == 0 {
		httpError(w, http.StatusBadRequest, "tickers are required")
		return
	}
	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	decisions := s.engine.EvaluateBatch(r.Context(), req.Tickers, asOf, req.Position)
	for _, d := range decisions {
		s.hub.Broadcast(d)
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
	}
	if s.breaker != nil {
		state := s.breaker.BreakerState()
		health["data_source_breaker"] = state
		if state == "open" {
			health["status"] = "degraded"
		}
	}
	if s.metrics != nil {
		health["evaluations_total"] = s.metrics.CounterValue("quantrun_evaluations_total")
	}
	writeJSON(w, http.StatusOK, health)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
