// Package dashboard assembles the river height, forecast, history, and
// weather panels on a fixed interval and publishes each result as one
// immutable snapshot.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/couchcryptid/river-height-service/internal/thresholds"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Snapshot sources, also used as keys in Snapshot.Errors.
const (
	SourceRiverHeight = "river_height"
	SourceForecast    = "forecast"
	SourceHistory     = "history"
	SourceWeather     = "weather"
)

const notifyTimeout = 15 * time.Second

// TideSource reads stored tide samples.
type TideSource interface {
	LatestReadings(ctx context.Context, n int) ([]domain.TideSample, error)
	Since(ctx context.Context, from time.Time) ([]domain.TideSample, error)
}

// ForecastSource reads the newest forecast batch.
type ForecastSource interface {
	Latest(ctx context.Context) (*domain.ForecastBatch, error)
}

// ThresholdSource is the observable thresholds store. Reload picks up values
// written by another process and notifies listeners when they changed.
type ThresholdSource interface {
	Get() domain.Thresholds
	Reload(ctx context.Context) domain.Thresholds
	Subscribe(fn thresholds.Listener) (unsubscribe func())
}

// Snapshot is one committed refresh. A nil panel means its fetch failed or
// had no data; failures are described in Errors.
type Snapshot struct {
	RiverHeight *domain.RiverHeight     `json:"riverHeight"`
	Forecast    *domain.ForecastBatch   `json:"forecast"`
	History     domain.HistoricalSeries `json:"history"`
	Weather     *domain.Weather         `json:"weather"`
	Thresholds  domain.Thresholds       `json:"thresholds"`
	Errors      map[string]string       `json:"errors,omitempty"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// Options configure a Refresher.
type Options struct {
	Interval    time.Duration
	HistoryDays int
	Location    string
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Refresher owns the refresh loop and the latest snapshot.
type Refresher struct {
	tides      TideSource
	forecasts  ForecastSource
	weather    domain.WeatherProvider
	thresholds ThresholdSource
	notifier   domain.StatusNotifier
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
	clock      clockwork.Clock

	snapshot atomic.Pointer[Snapshot]
	inFlight atomic.Bool

	visibilityMu sync.Mutex
	visibility   chan bool

	// commitMu orders snapshot commits and guards lastStatus.
	commitMu   sync.Mutex
	lastStatus domain.Status
}

// New creates a Refresher. weather and notifier may be nil.
func New(
	tides TideSource,
	forecasts ForecastSource,
	weather domain.WeatherProvider,
	th ThresholdSource,
	notifier domain.StatusNotifier,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Refresher {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Refresher{
		tides:      tides,
		forecasts:  forecasts,
		weather:    weather,
		thresholds: th,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
		clock:      clk,
		visibility: make(chan bool, 1),
	}
}

// CheckReadiness returns nil once a snapshot has been committed.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if r.snapshot.Load() == nil {
		return errors.New("dashboard has not completed a refresh yet")
	}
	return nil
}

// Snapshot returns the last committed snapshot, or nil before the first
// refresh. Callers must not modify it.
func (r *Refresher) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// SetVisible suspends (false) or resumes (true) periodic refreshes. Resuming
// triggers an immediate refresh.
func (r *Refresher) SetVisible(visible bool) {
	r.visibilityMu.Lock()
	defer r.visibilityMu.Unlock()
	select {
	case <-r.visibility:
	default:
	}
	r.visibility <- visible
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
// Threshold changes recompute the current snapshot's status without a fetch.
func (r *Refresher) Run(ctx context.Context) error {
	unsubscribe := r.thresholds.Subscribe(r.onThresholds)
	defer unsubscribe()

	r.logger.Info("dashboard refresher started", "interval", r.opts.Interval, "history_days", r.opts.HistoryDays)
	r.Refresh(ctx)

	ticker := r.clock.NewTicker(r.opts.Interval)
	defer func() { ticker.Stop() }()
	visible := true

	for {
		var tick <-chan time.Time
		if visible {
			tick = ticker.Chan()
		}

		select {
		case <-ctx.Done():
			r.logger.Info("dashboard refresher stopping", "reason", ctx.Err())
			return nil
		case <-tick:
			r.Refresh(ctx)
		case v := <-r.visibility:
			if v == visible {
				continue
			}
			visible = v
			if !visible {
				ticker.Stop()
				r.logger.Info("dashboard refresh suspended")
				continue
			}
			r.logger.Info("dashboard refresh resumed")
			ticker = r.clock.NewTicker(r.opts.Interval)
			r.Refresh(ctx)
		}
	}
}

// Refresh fetches all panels concurrently and commits one snapshot. It
// returns false without fetching when another refresh is still in flight.
func (r *Refresher) Refresh(ctx context.Context) bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("refresh skipped, previous refresh still running")
		return false
	}
	defer r.inFlight.Store(false)

	// A change made through the CLI reaches this process here.
	r.thresholds.Reload(ctx)

	start := r.clock.Now()
	snap := &Snapshot{Errors: map[string]string{}}
	var errMu sync.Mutex
	fail := func(source string, err error) {
		errMu.Lock()
		snap.Errors[source] = err.Error()
		errMu.Unlock()
		r.metrics.RefreshSourceFailures.WithLabelValues(source).Inc()
		r.logger.Warn("refresh source failed", "source", source, "error", err)
	}

	// Each fetch writes its own field and records its own failure, so one
	// failing source never cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		rh, err := r.RiverHeight(ctx)
		if err != nil {
			fail(SourceRiverHeight, err)
			return nil
		}
		snap.RiverHeight = rh
		return nil
	})
	g.Go(func() error {
		fc, err := r.Forecast(ctx)
		if err != nil {
			fail(SourceForecast, err)
			return nil
		}
		snap.Forecast = fc
		return nil
	})
	g.Go(func() error {
		h, err := r.History(ctx)
		if err != nil {
			fail(SourceHistory, err)
			return nil
		}
		snap.History = h
		return nil
	})
	g.Go(func() error {
		w, err := r.Weather(ctx)
		if err != nil {
			fail(SourceWeather, err)
			return nil
		}
		snap.Weather = w
		return nil
	})
	_ = g.Wait()

	if len(snap.Errors) == 0 {
		snap.Errors = nil
	}
	snap.UpdatedAt = r.clock.Now().UTC()
	r.commit(ctx, snap)

	r.metrics.RefreshCycles.Inc()
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	return true
}

// RiverHeight returns the latest reading classified with the current
// thresholds, or nil when there are no readings.
func (r *Refresher) RiverHeight(ctx context.Context) (*domain.RiverHeight, error) {
	readings, err := r.tides.LatestReadings(ctx, 2)
	if err != nil {
		return nil, err
	}
	rh, ok := domain.NewRiverHeight(readings, r.opts.Location, r.thresholds.Get())
	if !ok {
		return nil, nil
	}
	return &rh, nil
}

// Forecast returns the newest forecast batch, or nil when none exists.
func (r *Refresher) Forecast(ctx context.Context) (*domain.ForecastBatch, error) {
	return r.forecasts.Latest(ctx)
}

// History returns both sample kinds from the configured window, merged by moment.
func (r *Refresher) History(ctx context.Context) (domain.HistoricalSeries, error) {
	from := r.clock.Now().AddDate(0, 0, -r.opts.HistoryDays)
	samples, err := r.tides.Since(ctx, from)
	if err != nil {
		return nil, err
	}
	return domain.MergeSeries(samples), nil
}

// Weather returns current conditions, or nil when no provider is configured.
func (r *Refresher) Weather(ctx context.Context) (*domain.Weather, error) {
	if r.weather == nil {
		return nil, nil
	}
	return r.weather.CurrentWeather(ctx)
}

// onThresholds reclassifies the last committed snapshot. The snapshot is read
// under commitMu so a refresh committing concurrently is never overwritten by
// an older copy.
func (r *Refresher) onThresholds(domain.Thresholds) {
	r.commitMu.Lock()
	current := r.snapshot.Load()
	if current == nil {
		r.commitMu.Unlock()
		return
	}
	next := *current
	change, changed := r.commitLocked(&next)
	r.commitMu.Unlock()

	if changed {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		r.announce(ctx, change)
	}
}

// commit classifies snap with the thresholds current at commit time, stores
// it, and notifies on a status change.
func (r *Refresher) commit(ctx context.Context, snap *Snapshot) {
	r.commitMu.Lock()
	change, changed := r.commitLocked(snap)
	r.commitMu.Unlock()

	if changed {
		r.announce(ctx, change)
	}
}

// commitLocked must be called with commitMu held.
func (r *Refresher) commitLocked(snap *Snapshot) (domain.StatusChange, bool) {
	t := r.thresholds.Get()
	snap.Thresholds = t
	if snap.RiverHeight != nil {
		rh := snap.RiverHeight.WithThresholds(t)
		snap.RiverHeight = &rh
	}
	r.snapshot.Store(snap)
	return r.transition(snap.RiverHeight)
}

func (r *Refresher) announce(ctx context.Context, change domain.StatusChange) {
	if change.Escalated {
		r.metrics.StatusEscalations.WithLabelValues(string(change.Status)).Inc()
		r.logger.Warn("river status escalated",
			"status", change.Status,
			"previous", change.Previous,
			"height", change.Height,
		)
	} else {
		r.logger.Info("river status changed", "status", change.Status, "previous", change.Previous, "height", change.Height)
	}
	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, change); err != nil {
			r.logger.Warn("status notification incomplete", "error", err)
		}
	}
}

// transition records the status of rh and reports whether it differs from
// the previous one. Missing data leaves the previous status in place.
func (r *Refresher) transition(rh *domain.RiverHeight) (domain.StatusChange, bool) {
	if rh == nil {
		return domain.StatusChange{}, false
	}
	r.metrics.RiverHeight.Set(rh.Height)
	r.metrics.RiverStatus.Set(float64(rh.Status.Rank()))

	prev := r.lastStatus
	r.lastStatus = rh.Status
	if prev == rh.Status {
		return domain.StatusChange{}, false
	}
	return domain.StatusChange{
		Location:  rh.Location,
		Status:    rh.Status,
		Previous:  prev,
		Height:    rh.Height,
		Timestamp: rh.Timestamp,
		Escalated: rh.Status.Escalated(prev),
	}, true
}
