package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/matcher"
	"github.com/couchcryptid/river-height-service/internal/reports"
)

func (s *Server) handleRiverHeight(w http.ResponseWriter, r *http.Request) {
	rh, err := s.api.Dashboard.RiverHeight(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if rh == nil {
		writeError(w, http.StatusNotFound, "no river height data available")
		return
	}
	writeJSON(w, http.StatusOK, rh)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := s.api.Dashboard.Forecast(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if fc == nil {
		writeError(w, http.StatusNotFound, "no forecast data available")
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	series, err := s.api.Dashboard.History(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if series == nil {
		series = domain.HistoricalSeries{}
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	weather, err := s.api.Dashboard.Weather(r.Context())
	if err != nil {
		s.logger.Warn("weather lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, "weather provider unavailable")
		return
	}
	if weather == nil {
		writeError(w, http.StatusNotFound, "weather is not configured")
		return
	}
	writeJSON(w, http.StatusOK, weather)
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	snap := s.api.Dashboard.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard has not refreshed yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Visible == nil {
		writeError(w, http.StatusBadRequest, `body must be {"visible": true|false}`)
		return
	}
	s.api.Dashboard.SetVisible(*body.Visible)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.api.Thresholds.Get())
}

func (s *Server) handleSetThresholds(w http.ResponseWriter, r *http.Request) {
	// Pointers tell a missing or null field apart from an explicit 0.
	var body struct {
		Warning  *float64 `json:"warning"`
		Alert    *float64 `json:"alert"`
		Critical *float64 `json:"critical"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed thresholds: "+err.Error())
		return
	}
	if body.Warning == nil || body.Alert == nil || body.Critical == nil {
		writeError(w, http.StatusBadRequest, "warning, alert, and critical are required numbers")
		return
	}
	t := domain.Thresholds{Warning: *body.Warning, Alert: *body.Alert, Critical: *body.Critical}
	if err := s.api.Thresholds.Set(r.Context(), t); err != nil {
		if errors.Is(err, domain.ErrInvalidThresholds) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleResetThresholds(w http.ResponseWriter, r *http.Request) {
	t, err := s.api.Thresholds.Reset(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := domain.TideKind(q.Get("kind"))
	if kind == "" {
		kind = domain.KindReading
	}
	raw := q.Get("at")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: at")
		return
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "at must be an RFC3339 timestamp")
		return
	}

	match, ok, err := s.api.Nearest.FindNearest(r.Context(), kind, at)
	switch {
	case errors.Is(err, matcher.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.internalError(w, r, err)
	case !ok:
		writeError(w, http.StatusNotFound, "no samples of kind "+string(kind))
	default:
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var in domain.ReportInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed flood report: "+err.Error())
		return
	}
	report, err := s.api.Reports.Submit(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidReport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := reports.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.api.Reports.List(r.Context(), limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.FloodReport{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecordAnalytics(w http.ResponseWriter, r *http.Request) {
	var e domain.AnalyticsEvent
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "malformed analytics event: "+err.Error())
		return
	}
	if err := s.api.Analytics.Record(r.Context(), e); err != nil {
		if errors.Is(err, domain.ErrInvalidAnalyticsEvent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.metrics.AnalyticsEvents.Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.api.Analytics.Summary(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
