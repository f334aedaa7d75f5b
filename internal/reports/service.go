// Package reports accepts crowd-sourced flood reports, stamps each with the
// nearest observed river reading, and stores and publishes it.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
)

// List limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Repository is the append-only report log.
type Repository interface {
	Insert(ctx context.Context, report domain.FloodReport) error
	List(ctx context.Context, limit int) ([]domain.FloodReport, error)
}

// Correlator resolves the observed reading nearest to a moment, or nil.
type Correlator interface {
	Correlate(ctx context.Context, at time.Time) *domain.TideMatch
}

// Publisher forwards stored reports to downstream consumers.
type Publisher interface {
	PublishReport(ctx context.Context, report domain.FloodReport) error
}

// Service handles report submission and listing.
type Service struct {
	repo       Repository
	correlator Correlator
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewService creates a Service. publisher may be nil when no stream is configured.
func NewService(repo Repository, correlator Correlator, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		repo:       repo,
		correlator: correlator,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
	}
}

// Submit validates in, resolves the nearest reading to its timestamp, and
// stores the report. The tide lookup completes before the insert starts; a
// failed or empty lookup stores null tide fields. Validation errors wrap
// domain.ErrInvalidReport. Publishing is best effort.
func (s *Service) Submit(ctx context.Context, in domain.ReportInput) (domain.FloodReport, error) {
	ts, err := in.Validate()
	if err != nil {
		s.metrics.ReportsRejected.Inc()
		return domain.FloodReport{}, err
	}

	tide := s.correlator.Correlate(ctx, ts)
	report := domain.NewFloodReport(in, ts, tide)

	if err := s.repo.Insert(ctx, report); err != nil {
		return domain.FloodReport{}, fmt.Errorf("store flood report: %w", err)
	}
	s.metrics.ReportsSubmitted.Inc()
	s.logger.Info("flood report submitted",
		"id", report.ID,
		"state", report.State,
		"timestamp", report.Timestamp,
		"tide_matched", tide != nil,
	)

	s.publish(ctx, report)
	return report, nil
}

func (s *Service) publish(ctx context.Context, report domain.FloodReport) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReport(ctx, report); err != nil {
		s.metrics.ReportEvents.WithLabelValues("error").Inc()
		s.logger.Warn("publish flood report failed", "id", report.ID, "error", err)
		return
	}
	s.metrics.ReportEvents.WithLabelValues("success").Inc()
}

// List returns stored reports newest first. A non-positive limit selects
// DefaultListLimit; larger values are capped at MaxListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]domain.FloodReport, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}
