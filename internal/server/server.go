// Package server exposes the latest analysis report over a read-mostly
// JSON API. Rendering (tables, histograms, probability cones) belongs to
// whatever client consumes these endpoints; the server only serializes
// the core's numeric outputs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/analyzer"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
	"github.com/AlexHusseini/options-alpha-toolkit/internal/session"
)

// Server serves session state and analysis results over HTTP.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	session    session.Interface
	aggregator *analyzer.Aggregator
	logger     *logrus.Logger
	port       int
	authToken  string
	multiplier float64
}

// Config holds server settings.
type Config struct {
	Port int
	// AuthToken, when set, is required on every request except /health.
	AuthToken string
	// ContractMultiplier is used by the hedge endpoints. Zero means the
	// standard 100-share convention.
	ContractMultiplier float64
}

// NewServer wires the API around a session store and aggregator.
func NewServer(cfg Config, sess session.Interface, agg *analyzer.Aggregator, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		router:     chi.NewRouter(),
		session:    sess,
		aggregator: agg,
		logger:     logger,
		port:       cfg.Port,
		authToken:  cfg.AuthToken,
		multiplier: cfg.ContractMultiplier,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/contracts", s.handleGetContracts)
	s.router.Get("/api/report", s.handleGetReport)
	s.router.Get("/api/rankings", s.handleGetRankings)
	s.router.Get("/api/simulations", s.handleGetSimulations)
	s.router.Get("/api/simulations/{index}/returns", s.handleGetReturns)
	s.router.Post("/api/hedge/delta", s.handleDeltaHedge)
	s.router.Post("/api/hedge/delta-gamma", s.handleDeltaGammaHedge)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting results API on port %d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleGetContracts(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.session.Contracts())
}

// ReportView summarizes the latest report without the bulky per-path data.
type ReportView struct {
	ID            string    `json:"id"`
	GeneratedAt   time.Time `json:"generated_at"`
	Metric        string    `json:"metric"`
	Contracts     int       `json:"contracts"`
	Ranked        int       `json:"ranked"`
	ScoreFailures int       `json:"score_failures"`
	Simulations   int       `json:"simulations"`
}

func (s *Server) handleGetReport(w http.ResponseWriter, _ *http.Request) {
	report := s.session.LatestReport()
	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, ReportView{
		ID:            report.ID,
		GeneratedAt:   report.GeneratedAt,
		Metric:        report.Metric.String(),
		Contracts:     len(report.Rankings) + len(report.ScoreFailures),
		Ranked:        len(report.Rankings),
		ScoreFailures: len(report.ScoreFailures),
		Simulations:   len(report.Simulations),
	})
}

// RankingView is one row of the sortable results view.
type RankingView struct {
	Rank   int     `json:"rank"`
	Index  int     `json:"index"`
	Strike float64 `json:"strike"`
	Score  float64 `json:"score"`
}

// RankingsView pairs the ranked rows with the per-contract failures so
// excluded contracts are reported, never silently dropped.
type RankingsView struct {
	Metric   string        `json:"metric"`
	Rankings []RankingView `json:"rankings"`
	Failures []FailureView `json:"failures,omitempty"`
}

// FailureView reports one contract excluded from the ranking.
type FailureView struct {
	Index  int     `json:"index"`
	Strike float64 `json:"strike"`
	Error  string  `json:"error"`
}

func (s *Server) handleGetRankings(w http.ResponseWriter, _ *http.Request) {
	report := s.session.LatestReport()
	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}

	view := RankingsView{Metric: report.Metric.String()}
	for i, r := range report.Rankings {
		view.Rankings = append(view.Rankings, RankingView{
			Rank:   i + 1,
			Index:  r.Index,
			Strike: r.Contract.Strike,
			Score:  r.Score,
		})
	}
	for _, f := range report.ScoreFailures {
		view.Failures = append(view.Failures, FailureView{
			Index:  f.Index,
			Strike: f.Contract.Strike,
			Error:  f.Err.Error(),
		})
	}
	s.writeJSON(w, view)
}

// SimulationView is the per-contract simulation summary; the return
// series is served separately to keep this payload small.
type SimulationView struct {
	Index             int                        `json:"index"`
	Strike            float64                    `json:"strike"`
	RunID             string                     `json:"run_id,omitempty"`
	Seed              int64                      `json:"seed,omitempty"`
	Paths             int                        `json:"paths,omitempty"`
	AvgReturnDollars  float64                    `json:"avg_return_dollars,omitempty"`
	AvgReturnPct      float64                    `json:"avg_return_pct,omitempty"`
	WinRate           float64                    `json:"win_rate,omitempty"`
	BestCase          float64                    `json:"best_case,omitempty"`
	PrimaryEdgeFactor string                     `json:"primary_edge_factor,omitempty"`
	Contributions     *models.GreekContributions `json:"contributions,omitempty"`
	Error             string                     `json:"error,omitempty"`
}

func (s *Server) handleGetSimulations(w http.ResponseWriter, _ *http.Request) {
	report := s.session.LatestReport()
	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}

	views := make([]SimulationView, 0, len(report.Simulations))
	for _, sim := range report.Simulations {
		v := SimulationView{Index: sim.Index, Strike: sim.Contract.Strike}
		if sim.Err != nil {
			v.Error = sim.Err.Error()
		}
		if sim.Result != nil {
			contribs := sim.Result.Contributions
			v.RunID = sim.Result.RunID
			v.Seed = sim.Result.Seed
			v.Paths = len(sim.Result.Returns)
			v.AvgReturnDollars = sim.Result.AvgReturnDollars
			v.AvgReturnPct = sim.Result.AvgReturnPct
			v.WinRate = sim.Result.WinRate
			v.BestCase = sim.Result.BestCase
			v.PrimaryEdgeFactor = string(sim.Result.PrimaryEdgeFactor)
			v.Contributions = &contribs
		}
		views = append(views, v)
	}
	s.writeJSON(w, views)
}

func (s *Server) handleGetReturns(w http.ResponseWriter, r *http.Request) {
	report := s.session.LatestReport()
	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid contract index", http.StatusBadRequest)
		return
	}

	for _, sim := range report.Simulations {
		if sim.Index == index && sim.Result != nil {
			s.writeJSON(w, sim.Result.Returns)
			return
		}
	}
	http.Error(w, "no simulation for contract", http.StatusNotFound)
}

// HedgeRequest selects contracts from the current session by index.
type HedgeRequest struct {
	ContractIndex   int  `json:"contract_index"`
	InstrumentIndex *int `json:"instrument_index,omitempty"`
	// Multiplier overrides the configured contract multiplier when > 0.
	Multiplier float64 `json:"multiplier,omitempty"`
}

func (s *Server) handleDeltaHedge(w http.ResponseWriter, r *http.Request) {
	req, contract, ok := s.decodeHedgeRequest(w, r)
	if !ok {
		return
	}
	result, err := s.aggregator.DeltaHedge(contract, s.hedgeMultiplier(req))
	if err != nil {
		s.logger.WithError(err).Error("Delta hedge failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) handleDeltaGammaHedge(w http.ResponseWriter, r *http.Request) {
	req, contract, ok := s.decodeHedgeRequest(w, r)
	if !ok {
		return
	}
	if req.InstrumentIndex == nil {
		http.Error(w, "instrument_index is required", http.StatusBadRequest)
		return
	}
	contracts := s.session.Contracts()
	if *req.InstrumentIndex < 0 || *req.InstrumentIndex >= len(contracts) {
		http.Error(w, "instrument_index out of range", http.StatusBadRequest)
		return
	}
	instrument := contracts[*req.InstrumentIndex]

	result, err := s.aggregator.DeltaGammaHedge(contract, instrument, s.hedgeMultiplier(req))
	if err != nil {
		s.logger.WithError(err).Error("Delta-gamma hedge failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) decodeHedgeRequest(w http.ResponseWriter, r *http.Request) (HedgeRequest, models.OptionContract, bool) {
	var req HedgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, models.OptionContract{}, false
	}
	contracts := s.session.Contracts()
	if req.ContractIndex < 0 || req.ContractIndex >= len(contracts) {
		http.Error(w, "contract_index out of range", http.StatusBadRequest)
		return req, models.OptionContract{}, false
	}
	return req, contracts[req.ContractIndex], true
}

func (s *Server) hedgeMultiplier(req HedgeRequest) float64 {
	if req.Multiplier > 0 {
		return req.Multiplier
	}
	return s.multiplier
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
