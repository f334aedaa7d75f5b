package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"gorm.io/gorm"
)

// ReportRepository is the append-only flood report log.
type ReportRepository struct {
	db *gorm.DB
}

// Insert appends a report.
func (r *ReportRepository) Insert(ctx context.Context, report domain.FloodReport) error {
	row := reportRowFrom(report)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert flood report: %w", err)
	}
	return nil
}

// List returns up to limit reports, newest report timestamp first.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]domain.FloodReport, error) {
	var rows []reportRow
	err := r.db.WithContext(ctx).
		Order("reported_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list flood reports: %w", err)
	}
	out := make([]domain.FloodReport, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
