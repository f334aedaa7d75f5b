// Package notify fans river status changes out to push services and an MQTT
// broker.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
)

// Notifier delivers status changes over one channel.
type Notifier interface {
	Name() string
	// Accepts reports whether this channel wants the change at all.
	Accepts(c domain.StatusChange) bool
	Notify(ctx context.Context, c domain.StatusChange) error
}

// Fanout delivers a change to every accepting notifier. Channel failures are
// logged and counted and never block the others.
type Fanout struct {
	notifiers []Notifier
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFanout creates a Fanout over notifiers.
func NewFanout(logger *slog.Logger, metrics *observability.Metrics, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, logger: logger, metrics: metrics}
}

// Len returns the number of configured channels.
func (f *Fanout) Len() int { return len(f.notifiers) }

// Notify sends c to every accepting notifier and returns the joined errors.
func (f *Fanout) Notify(ctx context.Context, c domain.StatusChange) error {
	var errs []error
	for _, n := range f.notifiers {
		if !n.Accepts(c) {
			continue
		}
		if err := n.Notify(ctx, c); err != nil {
			f.metrics.Notifications.WithLabelValues(n.Name(), "error").Inc()
			f.logger.Warn("status notification failed", "channel", n.Name(), "status", c.Status, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		f.metrics.Notifications.WithLabelValues(n.Name(), "success").Inc()
		f.logger.Info("status notification sent", "channel", n.Name(), "status", c.Status, "height", c.Height)
	}
	return errors.Join(errs...)
}
