package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/river-height-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/river-height-service/internal/adapter/kafka"
	"github.com/couchcryptid/river-height-service/internal/adapter/notify"
	"github.com/couchcryptid/river-height-service/internal/adapter/openweather"
	"github.com/couchcryptid/river-height-service/internal/config"
	"github.com/couchcryptid/river-height-service/internal/dashboard"
	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/matcher"
	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/couchcryptid/river-height-service/internal/reports"
	"github.com/couchcryptid/river-height-service/internal/thresholds"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const notifyTimeout = 10 * time.Second

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the dashboard refresh loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	cfg := a.cfg
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := a.openStore(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	th := thresholds.New(ctx, db.Settings(), logger)
	m := matcher.New(db.Tides(), logger, metrics)

	// Weather is feature-flagged via OPENWEATHER_ENABLED / OPENWEATHER_API_KEY.
	var weather domain.WeatherProvider
	if cfg.OpenWeatherEnabled {
		client := openweather.NewClient(cfg.OpenWeatherAPIKey, openweather.Query{
			Lat:   cfg.OpenWeatherLat,
			Lon:   cfg.OpenWeatherLon,
			Lang:  cfg.OpenWeatherLang,
			Units: cfg.OpenWeatherUnits,
		}, cfg.OpenWeatherTimeout, logger, metrics)
		weather = openweather.NewCachedProvider(client, cfg.OpenWeatherCacheTTL, metrics)
		metrics.WeatherEnabled.Set(1)
		logger.Info("openweather enabled", "cache_ttl", cfg.OpenWeatherCacheTTL, "timeout", cfg.OpenWeatherTimeout)
	} else {
		logger.Info("openweather disabled")
	}

	fanout, closeNotifiers, err := buildNotifiers(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeNotifiers()
	var notifier domain.StatusNotifier
	if fanout.Len() > 0 {
		notifier = fanout
	}

	var publisher reports.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewReportPublisher(cfg.KafkaBrokers, cfg.KafkaReportsTopic, logger)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = w
		logger.Info("flood report stream enabled", "topic", cfg.KafkaReportsTopic)
	}

	refresher := dashboard.New(db.Tides(), db.Forecasts(), weather, th, notifier, logger, metrics, dashboard.Options{
		Interval:    cfg.RefreshInterval,
		HistoryDays: cfg.HistoryDays,
		Location:    cfg.StationLabel,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.API{
		Dashboard:  refresher,
		Thresholds: th,
		Nearest:    m,
		Reports:    reports.NewService(db.Reports(), m, publisher, logger, metrics),
		Analytics:  db.Analytics(),
	}, logger, metrics, db, refresher)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start dashboard refresh loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("refresher did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return nil
}

// buildNotifiers wires the configured escalation channels. The returned func
// releases their connections.
func buildNotifiers(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*notify.Fanout, func(), error) {
	var (
		channels []notify.Notifier
		closers  []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error("notifier close error", "error", err)
			}
		}
	}

	if len(cfg.NotifyURLs) > 0 {
		n, err := notify.NewShoutrrrNotifier(cfg.NotifyURLs, notifyTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("configure NOTIFY_URLS: %w", err)
		}
		channels = append(channels, n)
		logger.Info("push notifications enabled", "services", len(cfg.NotifyURLs))
	}

	if cfg.MQTTBroker != "" {
		p, err := notify.NewMQTTPublisher(cfg.MQTTBroker, "riverwatch-"+uuid.NewString()[:8], cfg.MQTTTopic)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("configure MQTT_BROKER: %w", err)
		}
		channels = append(channels, p)
		closers = append(closers, p.Close)
		logger.Info("mqtt status publishing enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
	}

	return notify.NewFanout(logger, metrics, channels...), closeAll, nil
}
