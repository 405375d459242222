// Package api exposes the forecast pipeline over a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"stock-forecaster/internal/analysis"
	"stock-forecaster/internal/config"
	"stock-forecaster/internal/db"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/report"
	"stock-forecaster/internal/store"

	"golang.org/x/sync/singleflight"
)

// Server is the HTTP API server that connects the model store, forecast
// engine, analysis engine, and history database.
type Server struct {
	cfg   *config.Config
	store *store.Store
	db    *db.DB

	// Coalesces identical concurrent forecast requests (same products and
	// date range). Each caller still receives its own response value.
	group singleflight.Group
}

// NewServer creates a Server with the given config, model store, and
// history database.
func NewServer(cfg *config.Config, st *store.Store, database *db.DB) *Server {
	return &Server{cfg: cfg, store: st, db: database}
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("POST /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleGetHistoryByID)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleDeleteHistory)
	mux.HandleFunc("POST /api/history/clear", s.handleClearHistory)
	mux.HandleFunc("GET /api/report/{id}", s.handleReport)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeDomainError maps the pipeline's typed failures to HTTP status codes:
// bad input 400, missing model data 500, out-of-order calls 409, undefined
// profit boundary 422.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *forecast.ValidationError
		notFoundErr   *store.NotFoundError
		stateErr      *analysis.StateError
		zeroSalesErr  *analysis.ZeroSalesError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &zeroSalesErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"models_loaded": s.store.Len(),
		"products":      len(s.cfg.Products),
		"epoch_date":    s.cfg.EpochDate,
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	type productInfo struct {
		ID          string  `json:"id"`
		LossPercent float64 `json:"loss_percent"`
	}
	products := make([]productInfo, 0, len(s.cfg.Products))
	for _, id := range s.cfg.Products {
		products = append(products, productInfo{ID: id, LossPercent: s.cfg.Losses[id]})
	}
	writeJSON(w, map[string]interface{}{
		"products":   products,
		"epoch_date": s.cfg.EpochDate,
	})
}

type forecastRequest struct {
	Products  []string `json:"products"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

type forecastResponse struct {
	RunID    int64                      `json:"run_id"`
	Windows  map[string]forecast.Window `json:"windows"`
	Analysis *analysis.Aggregate        `json:"analysis"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, 400, fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", req.StartDate))
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, 400, fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", req.EndDate))
		return
	}

	result, err, _ := s.group.Do(forecastKey(req.Products, req.StartDate, req.EndDate), func() (interface{}, error) {
		return s.runForecast(req.Products, start, end)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, result.(*forecastResponse))
}

// runForecast executes the full pipeline for one request: forecast, analyze,
// persist, respond. It is the unit of work behind singleflight coalescing.
func (s *Server) runForecast(products []string, start, end time.Time) (*forecastResponse, error) {
	began := time.Now()

	engine := forecast.New(s.cfg, s.store)
	windows, err := engine.Forecast(products, start, end)
	if err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer(s.cfg.Losses)
	agg, err := analyzer.Analyze(windows)
	if err != nil {
		return nil, err
	}

	var runID int64
	if s.db != nil {
		runID = s.db.InsertRun(start, end, products, agg, time.Since(began).Milliseconds())
	}
	return &forecastResponse{RunID: runID, Windows: windows, Analysis: agg}, nil
}

// forecastKey builds a singleflight key that is order-insensitive over the
// product selection.
func forecastKey(products []string, start, end string) string {
	sorted := append([]string(nil), products...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + "|" + start + "|" + end
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	runs := s.db.GetRuns(limit)
	if runs == nil {
		runs = []db.RunRecord{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetHistoryByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid run id")
		return
	}
	run, ok := s.db.GetRun(id)
	if !ok {
		writeError(w, 404, "run not found")
		return
	}
	agg, _ := s.db.GetRunAnalysis(id)
	writeJSON(w, map[string]interface{}{"run": run, "analysis": agg})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid run id")
		return
	}
	s.db.DeleteRun(id)
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.db.ClearRuns()
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid run id")
		return
	}
	run, ok := s.db.GetRun(id)
	if !ok {
		writeError(w, 404, "run not found")
		return
	}
	agg, ok := s.db.GetRunAnalysis(id)
	if !ok {
		writeError(w, 404, "run has no stored analysis")
		return
	}
	start, _ := time.Parse("2006-01-02", run.StartDate)
	end, _ := time.Parse("2006-01-02", run.EndDate)

	filename := fmt.Sprintf("forecast_report_%d.xlsx", id)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := report.WriteTo(w, agg, start, end); err != nil {
		// Headers may already be out; nothing useful left to send.
		return
	}
}
