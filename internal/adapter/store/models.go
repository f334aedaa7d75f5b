package store

import (
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
)

type tideRow struct {
	ID     uint      `gorm:"primaryKey"`
	Kind   string    `gorm:"size:16;not null;index:idx_tide_kind_moment,priority:1"`
	Moment time.Time `gorm:"not null;index:idx_tide_kind_moment,priority:2"`
	Value  float64   `gorm:"not null"`
}

func (tideRow) TableName() string { return "tide_samples" }

func (r tideRow) toDomain() domain.TideSample {
	return domain.TideSample{Moment: r.Moment.UTC(), Kind: domain.TideKind(r.Kind), Value: r.Value}
}

type forecastRow struct {
	ID     uint                   `gorm:"primaryKey"`
	Moment time.Time              `gorm:"not null;index"`
	Values []domain.ForecastEntry `gorm:"type:text;serializer:json"`
}

func (forecastRow) TableName() string { return "forecasts" }

type reportRow struct {
	ID                  string    `gorm:"primaryKey;size:36"`
	Latitude            float64   `gorm:"not null"`
	Longitude           float64   `gorm:"not null"`
	Timestamp           time.Time `gorm:"column:reported_at;not null;index"`
	State               string    `gorm:"size:16;not null"`
	EstimatedLevelCm    *float64
	ReporterName        *string
	ReporterEmail       *string
	TideHeight          *float64
	TideHeightTimestamp *time.Time
	CreatedAt           time.Time `gorm:"not null"`
}

func (reportRow) TableName() string { return "flood_reports" }

func reportRowFrom(r domain.FloodReport) reportRow {
	return reportRow{
		ID:                  r.ID,
		Latitude:            r.Location.Latitude,
		Longitude:           r.Location.Longitude,
		Timestamp:           r.Timestamp.UTC(),
		State:               string(r.State),
		EstimatedLevelCm:    r.EstimatedLevelCm,
		ReporterName:        r.ReporterName,
		ReporterEmail:       r.ReporterEmail,
		TideHeight:          r.TideHeight,
		TideHeightTimestamp: r.TideHeightTimestamp,
		CreatedAt:           r.CreatedAt.UTC(),
	}
}

func (r reportRow) toDomain() domain.FloodReport {
	out := domain.FloodReport{
		ID:               r.ID,
		Location:         domain.Location{Latitude: r.Latitude, Longitude: r.Longitude},
		Timestamp:        r.Timestamp.UTC(),
		State:            domain.FloodState(r.State),
		EstimatedLevelCm: r.EstimatedLevelCm,
		ReporterName:     r.ReporterName,
		ReporterEmail:    r.ReporterEmail,
		TideHeight:       r.TideHeight,
		CreatedAt:        r.CreatedAt.UTC(),
	}
	if r.TideHeightTimestamp != nil {
		ts := r.TideHeightTimestamp.UTC()
		out.TideHeightTimestamp = &ts
	}
	return out
}

type settingRow struct {
	Name      string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (settingRow) TableName() string { return "settings" }

type analyticsRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionID    string    `gorm:"size:128;not null;index"`
	Path         string    `gorm:"size:512;not null"`
	EventName    *string   `gorm:"size:128"`
	Timestamp    time.Time `gorm:"column:occurred_at;not null;index"`
	UserAgent    *string
	Referrer     *string
	ScreenWidth  *int
	ScreenHeight *int
	Language     *string `gorm:"size:32"`
}

func (analyticsRow) TableName() string { return "analytics_events" }
