// Package matcher finds the stored tide sample closest in time to a target
// moment using two bounded range queries.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidKind is returned for a tide kind other than reading or astronomical.
var ErrInvalidKind = errors.New("invalid tide kind")

// SampleFinder answers the two single-row range queries nearest-match needs.
// Both return nil, nil when no sample satisfies the bound.
type SampleFinder interface {
	LatestAtOrBefore(ctx context.Context, kind domain.TideKind, target time.Time) (*domain.TideSample, error)
	EarliestAtOrAfter(ctx context.Context, kind domain.TideKind, target time.Time) (*domain.TideSample, error)
}

// Matcher resolves nearest-sample lookups against a SampleFinder.
type Matcher struct {
	finder  SampleFinder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Matcher.
func New(finder SampleFinder, logger *slog.Logger, metrics *observability.Metrics) *Matcher {
	return &Matcher{finder: finder, logger: logger, metrics: metrics}
}

// FindNearest returns the sample of kind closest to target. The bool is false
// when no sample of that kind exists. Exact ties go to the earlier sample.
func (m *Matcher) FindNearest(ctx context.Context, kind domain.TideKind, target time.Time) (domain.TideMatch, bool, error) {
	if !kind.Valid() {
		return domain.TideMatch{}, false, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var before, after *domain.TideSample
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := m.finder.LatestAtOrBefore(gctx, kind, target)
		if err != nil {
			return fmt.Errorf("latest %s at or before %s: %w", kind, target.Format(time.RFC3339), err)
		}
		before = s
		return nil
	})
	g.Go(func() error {
		s, err := m.finder.EarliestAtOrAfter(gctx, kind, target)
		if err != nil {
			return fmt.Errorf("earliest %s at or after %s: %w", kind, target.Format(time.RFC3339), err)
		}
		after = s
		return nil
	})
	if err := g.Wait(); err != nil {
		m.metrics.MatchLookups.WithLabelValues(string(kind), "error").Inc()
		return domain.TideMatch{}, false, err
	}

	match, ok := domain.PickNearest(target, before, after)
	if !ok {
		m.metrics.MatchLookups.WithLabelValues(string(kind), "absent").Inc()
		return domain.TideMatch{}, false, nil
	}
	m.metrics.MatchLookups.WithLabelValues(string(kind), "found").Inc()
	return match, true, nil
}

// Correlate returns the observed reading nearest to a report timestamp, or
// nil when there is none or the lookup failed. Failures are logged and never
// returned so report creation can proceed without a tide height.
func (m *Matcher) Correlate(ctx context.Context, at time.Time) *domain.TideMatch {
	match, ok, err := m.FindNearest(ctx, domain.KindReading, at)
	if err != nil {
		m.logger.Warn("tide correlation failed, continuing without tide height",
			"error", err,
			"timestamp", at,
		)
		return nil
	}
	if !ok {
		return nil
	}
	return &match
}
