package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"gorm.io/gorm"
)

// ForecastRepository stores forecast batches.
type ForecastRepository struct {
	db *gorm.DB
}

// Insert stores one batch.
func (r *ForecastRepository) Insert(ctx context.Context, b domain.ForecastBatch) error {
	row := forecastRow{Moment: b.Moment.UTC(), Values: b.Values}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}
	return nil
}

// Latest returns the batch with the newest issuance moment, or nil when none exist.
func (r *ForecastRepository) Latest(ctx context.Context) (*domain.ForecastBatch, error) {
	var rows []forecastRow
	err := r.db.WithContext(ctx).Order("moment DESC").Order("id DESC").Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query latest forecast: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	values := rows[0].Values
	if values == nil {
		values = []domain.ForecastEntry{}
	}
	return &domain.ForecastBatch{Moment: rows[0].Moment.UTC(), Values: values}, nil
}
