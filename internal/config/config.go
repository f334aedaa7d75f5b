package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StoreDriver string
	StoreDSN    string

	RefreshInterval time.Duration
	HistoryDays     int
	StationLabel    string

	// OpenWeather configuration.
	OpenWeatherAPIKey   string
	OpenWeatherEnabled  bool
	OpenWeatherLat      float64
	OpenWeatherLon      float64
	OpenWeatherLang     string
	OpenWeatherUnits    string
	OpenWeatherTimeout  time.Duration
	OpenWeatherCacheTTL time.Duration

	// Escalation fan-out.
	NotifyURLs []string
	MQTTBroker string
	MQTTTopic  string

	KafkaBrokers      []string
	KafkaReportsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	if refreshInterval < time.Second {
		return nil, errors.New("invalid REFRESH_INTERVAL: must be at least 1s")
	}

	historyDays, err := strconv.Atoi(sharedcfg.EnvOrDefault("HISTORY_DAYS", "3"))
	if err != nil || historyDays < 1 || historyDays > 30 {
		return nil, errors.New("invalid HISTORY_DAYS: must be an integer between 1 and 30")
	}

	owTimeout, err := parseDuration("OPENWEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	owCacheTTL, err := parseDuration("OPENWEATHER_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	owLat, err := parseFloat("OPENWEATHER_LAT", "-34.426")
	if err != nil {
		return nil, err
	}
	owLon, err := parseFloat("OPENWEATHER_LON", "-58.5796")
	if err != nil {
		return nil, err
	}

	var kafkaBrokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	owKey := os.Getenv("OPENWEATHER_API_KEY")
	owEnabled := owKey != ""
	if v := os.Getenv("OPENWEATHER_ENABLED"); v != "" {
		owEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver: sharedcfg.EnvOrDefault("STORE_DRIVER", "sqlite"),
		StoreDSN:    sharedcfg.EnvOrDefault("STORE_DSN", "river-height.db"),

		RefreshInterval: refreshInterval,
		HistoryDays:     historyDays,
		StationLabel:    sharedcfg.EnvOrDefault("STATION_LABEL", "San Fernando"),

		OpenWeatherAPIKey:   owKey,
		OpenWeatherEnabled:  owEnabled,
		OpenWeatherLat:      owLat,
		OpenWeatherLon:      owLon,
		OpenWeatherLang:     sharedcfg.EnvOrDefault("OPENWEATHER_LANG", "es"),
		OpenWeatherUnits:    sharedcfg.EnvOrDefault("OPENWEATHER_UNITS", "metric"),
		OpenWeatherTimeout:  owTimeout,
		OpenWeatherCacheTTL: owCacheTTL,

		NotifyURLs: splitList(os.Getenv("NOTIFY_URLS")),
		MQTTBroker: os.Getenv("MQTT_BROKER"),
		MQTTTopic:  sharedcfg.EnvOrDefault("MQTT_TOPIC", "river-height/status"),

		KafkaBrokers:      kafkaBrokers,
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "flood-reports"),
	}

	if cfg.StoreDriver != "sqlite" && cfg.StoreDriver != "postgres" {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be sqlite or postgres", cfg.StoreDriver)
	}
	if cfg.StoreDSN == "" {
		return nil, errors.New("STORE_DSN is required")
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaReportsTopic == "" {
		return nil, errors.New("KAFKA_REPORTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
