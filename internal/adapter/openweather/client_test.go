package openweather

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/river-height-service/internal/observability"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"

	sampleBody = `{
		"weather": [{"description": "cielo claro", "icon": "01d"}],
		"main": {"temp": 22.5, "feels_like": 21.9, "humidity": 64, "pressure": 1012},
		"wind": {"speed": 4.1, "deg": 200, "gust": 7.2},
		"rain": {"1h": 0.25},
		"dt": 1709294400
	}`
)

var testQuery = Query{Lat: -34.426, Lon: -58.5796, Lang: "es", Units: "metric"}

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		query:      testQuery,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestClient_CurrentWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "-34.426", q.Get("lat"))
		assert.Equal(t, "-58.5796", q.Get("lon"))
		assert.Equal(t, testAPIKey, q.Get("appid"))
		assert.Equal(t, "es", q.Get("lang"))
		assert.Equal(t, "metric", q.Get("units"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.CurrentWeather(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, time.Unix(1709294400, 0).UTC(), got.ObservedAt)
	assert.InDelta(t, 22.5, got.Temperature, 1e-9)
	assert.InDelta(t, 21.9, got.FeelsLike, 1e-9)
	assert.Equal(t, 64, got.Humidity)
	assert.Equal(t, 1012, got.Pressure)
	assert.Equal(t, "cielo claro", got.Description)
	assert.Equal(t, "01d", got.Icon)
	assert.InDelta(t, 4.1, got.WindSpeed, 1e-9)
	assert.InDelta(t, 7.2, got.WindGust, 1e-9)
	assert.Equal(t, 200, got.WindDeg)
	assert.Equal(t, "SSW", got.WindFrom)
	assert.InDelta(t, 0.25, got.RainLastHr, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("success")), 1e-9)
}

func TestClient_CurrentWeather_NoRainNoConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"main": {"temp": 10}, "wind": {"speed": 0, "deg": 0}, "dt": 0}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).CurrentWeather(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.RainLastHr)
	assert.Empty(t, got.Description)
	assert.Equal(t, "N", got.WindFrom)
}

func TestClient_CurrentWeather_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.CurrentWeather(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("error")), 1e-9)
}

func TestClient_CurrentWeather_APIErrorIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"cod":429,"message":"rate limited"}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c := testClient(srv.URL)
	c.logger = slog.New(slog.NewTextHandler(&logs, nil))

	_, err := c.CurrentWeather(context.Background())
	require.Error(t, err)
	assert.Contains(t, logs.String(), "openweather request rejected")
	assert.Contains(t, logs.String(), "status=429")
	assert.Contains(t, logs.String(), "rate limited")
}

func TestClient_CurrentWeather_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CurrentWeather(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_CurrentWeather_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.CurrentWeather(context.Background())
	require.Error(t, err)
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("GET", `=~^https://api\.openweathermap\.org/data/2\.5/weather`,
		httpmock.NewStringResponder(http.StatusOK, sampleBody))

	c := NewClient(testAPIKey, testQuery, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	got, err := c.CurrentWeather(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cielo claro", got.Description)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
