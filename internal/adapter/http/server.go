package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/river-height-service/internal/dashboard"
	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// Dashboard serves the live panels and the last committed snapshot.
type Dashboard interface {
	RiverHeight(ctx context.Context) (*domain.RiverHeight, error)
	Forecast(ctx context.Context) (*domain.ForecastBatch, error)
	History(ctx context.Context) (domain.HistoricalSeries, error)
	Weather(ctx context.Context) (*domain.Weather, error)
	Snapshot() *dashboard.Snapshot
	SetVisible(visible bool)
}

// Thresholds is the observable thresholds store.
type Thresholds interface {
	Get() domain.Thresholds
	Set(ctx context.Context, t domain.Thresholds) error
	Reset(ctx context.Context) (domain.Thresholds, error)
}

// NearestFinder resolves nearest-sample lookups.
type NearestFinder interface {
	FindNearest(ctx context.Context, kind domain.TideKind, target time.Time) (domain.TideMatch, bool, error)
}

// Reports accepts and lists flood reports.
type Reports interface {
	Submit(ctx context.Context, in domain.ReportInput) (domain.FloodReport, error)
	List(ctx context.Context, limit int) ([]domain.FloodReport, error)
}

// Analytics records and summarizes client events.
type Analytics interface {
	Record(ctx context.Context, e domain.AnalyticsEvent) error
	Summary(ctx context.Context) (domain.AnalyticsSummary, error)
}

// API groups the services behind the /api routes.
type API struct {
	Dashboard  Dashboard
	Thresholds Thresholds
	Nearest    NearestFinder
	Reports    Reports
	Analytics  Analytics
}

// Server exposes the JSON API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the /api routes and /healthz,
// /readyz, and /metrics. The service is ready only when every checker is.
func NewServer(addr string, api API, logger *slog.Logger, metrics *observability.Metrics, ready ...sharedobs.ReadinessChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:     api,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(allReady(ready)))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/river-height", s.handleRiverHeight)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/weather", s.handleWeather)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("PUT /api/dashboard/visibility", s.handleVisibility)

	mux.HandleFunc("GET /api/thresholds", s.handleGetThresholds)
	mux.HandleFunc("PUT /api/thresholds", s.handleSetThresholds)
	mux.HandleFunc("DELETE /api/thresholds", s.handleResetThresholds)

	mux.HandleFunc("GET /api/tides/nearest", s.handleNearest)

	mux.HandleFunc("POST /api/flood-reports", s.handleSubmitReport)
	mux.HandleFunc("GET /api/flood-reports", s.handleListReports)

	mux.HandleFunc("POST /api/analytics", s.handleRecordAnalytics)
	mux.HandleFunc("GET /api/analytics", s.handleAnalyticsSummary)

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

type allReady []sharedobs.ReadinessChecker

func (a allReady) CheckReadiness(ctx context.Context) error {
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err and answers with a generic 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads a single JSON object from the request body, rejecting
// unknown fields and bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
