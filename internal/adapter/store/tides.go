package store

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"gorm.io/gorm"
)

// TideRepository stores readings and astronomical predictions. Every query
// filters on kind and ranges on moment so the (kind, moment) index serves it.
type TideRepository struct {
	db *gorm.DB
}

// Insert appends samples. Samples of an unknown kind are rejected.
func (r *TideRepository) Insert(ctx context.Context, samples []domain.TideSample) error {
	if len(samples) == 0 {
		return nil
	}
	rows := make([]tideRow, 0, len(samples))
	for _, s := range samples {
		if !s.Kind.Valid() {
			return fmt.Errorf("insert tide sample: unknown kind %q", s.Kind)
		}
		rows = append(rows, tideRow{Kind: string(s.Kind), Moment: s.Moment.UTC(), Value: s.Value})
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, 500).Error; err != nil {
		return fmt.Errorf("insert tide samples: %w", err)
	}
	return nil
}

// LatestAtOrBefore returns the newest sample of kind with moment <= target,
// or nil when there is none.
func (r *TideRepository) LatestAtOrBefore(ctx context.Context, kind domain.TideKind, target time.Time) (*domain.TideSample, error) {
	return r.first(ctx, "kind = ? AND moment <= ?", "moment DESC", kind, target)
}

// EarliestAtOrAfter returns the oldest sample of kind with moment >= target,
// or nil when there is none.
func (r *TideRepository) EarliestAtOrAfter(ctx context.Context, kind domain.TideKind, target time.Time) (*domain.TideSample, error) {
	return r.first(ctx, "kind = ? AND moment >= ?", "moment ASC", kind, target)
}

func (r *TideRepository) first(ctx context.Context, where, order string, kind domain.TideKind, target time.Time) (*domain.TideSample, error) {
	var rows []tideRow
	err := r.db.WithContext(ctx).
		Where(where, string(kind), target.UTC()).
		Order(order).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query %s samples: %w", kind, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	s := rows[0].toDomain()
	return &s, nil
}

// Since returns every sample of either kind with moment >= from, ascending.
func (r *TideRepository) Since(ctx context.Context, from time.Time) ([]domain.TideSample, error) {
	var rows []tideRow
	err := r.db.WithContext(ctx).
		Where("kind IN ? AND moment >= ?", []string{string(domain.KindReading), string(domain.KindAstronomical)}, from.UTC()).
		Order("moment ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query samples since %s: %w", from.Format(time.RFC3339), err)
	}
	return toSamples(rows), nil
}

// LatestReadings returns up to n observed readings, newest first.
func (r *TideRepository) LatestReadings(ctx context.Context, n int) ([]domain.TideSample, error) {
	var rows []tideRow
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(domain.KindReading)).
		Order("moment DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query latest readings: %w", err)
	}
	return toSamples(rows), nil
}

func toSamples(rows []tideRow) []domain.TideSample {
	out := make([]domain.TideSample, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
