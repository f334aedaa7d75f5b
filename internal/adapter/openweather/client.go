// Package openweather fetches current conditions from the OpenWeather API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Query selects the coordinates and presentation of the current conditions.
type Query struct {
	Lat   float64
	Lon   float64
	Lang  string
	Units string
}

// Client implements domain.WeatherProvider using the OpenWeather current
// weather endpoint.
type Client struct {
	apiKey     string
	query      Query
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeather client.
func NewClient(apiKey string, q Query, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		query:  q,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// CurrentWeather returns the current conditions at the configured coordinates.
func (c *Client) CurrentWeather(ctx context.Context) (*domain.Weather, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(c.query.Lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(c.query.Lon, 'f', -1, 64)},
		"appid": {c.apiKey},
	}
	if c.query.Lang != "" {
		params.Set("lang", c.query.Lang)
	}
	if c.query.Units != "" {
		params.Set("units", c.query.Units)
	}

	start := time.Now()
	w, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return w, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (*domain.Weather, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("openweather request rejected", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return owResp.toDomain(), nil
}

// OpenWeather API response types.

type response struct {
	Weather []condition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Dt int64 `json:"dt"` // unix seconds
}

type condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (r response) toDomain() *domain.Weather {
	w := &domain.Weather{
		ObservedAt:  time.Unix(r.Dt, 0).UTC(),
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		Pressure:    r.Main.Pressure,
		WindSpeed:   r.Wind.Speed,
		WindGust:    r.Wind.Gust,
		WindDeg:     r.Wind.Deg,
		WindFrom:    domain.CompassFrom(r.Wind.Deg),
	}
	if len(r.Weather) > 0 {
		w.Description = r.Weather[0].Description
		w.Icon = r.Weather[0].Icon
	}
	if r.Rain != nil {
		w.RainLastHr = r.Rain.OneHour
	}
	return w
}
