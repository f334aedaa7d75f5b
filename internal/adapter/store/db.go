// Package store persists tide samples, forecasts, flood reports, settings,
// and analytics events through gorm. SQLite serves single-node deployments
// and Postgres serves shared ones; both use the same models.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is an open, migrated store.
type DB struct {
	gorm   *gorm.DB
	logger *slog.Logger
}

// Open connects with the named driver and migrates the schema.
func Open(driver, dsn string, logger *slog.Logger) (*DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	g, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := g.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// One connection keeps ":memory:" databases shared and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := g.AutoMigrate(
		&tideRow{},
		&forecastRow{},
		&reportRow{},
		&settingRow{},
		&analyticsRow{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("store opened", "driver", driver)
	return &DB{gorm: g, logger: logger}, nil
}

// newGormLogger routes gorm's warnings and slow-query reports to slog.
func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	return gormlogger.New(
		slog.NewLogLogger(logger.With("component", "gorm").Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// CheckReadiness pings the underlying connection.
func (db *DB) CheckReadiness(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tides returns the tide sample repository.
func (db *DB) Tides() *TideRepository { return &TideRepository{db: db.gorm} }

// Forecasts returns the forecast repository.
func (db *DB) Forecasts() *ForecastRepository { return &ForecastRepository{db: db.gorm} }

// Reports returns the flood report repository.
func (db *DB) Reports() *ReportRepository { return &ReportRepository{db: db.gorm} }

// Settings returns the key-value settings repository.
func (db *DB) Settings() *SettingsRepository { return &SettingsRepository{db: db.gorm} }

// Analytics returns the analytics event repository.
func (db *DB) Analytics() *AnalyticsRepository { return &AnalyticsRepository{db: db.gorm} }
