package domain

import (
	"context"
	"math"
	"time"
)

// Weather holds current conditions at the station coordinates.
type Weather struct {
	ObservedAt  time.Time `json:"observedAt"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	WindSpeed   float64   `json:"windSpeed"`
	WindGust    float64   `json:"windGust,omitempty"`
	WindDeg     int       `json:"windDeg"`
	WindFrom    string    `json:"windFrom"`
	RainLastHr  float64   `json:"rainLastHour,omitempty"`
}

// WeatherProvider fetches current conditions. Implementations return a nil
// *Weather with a nil error when the provider has nothing to report.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context) (*Weather, error)
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassFrom names the 16-point sector the wind blows from.
func CompassFrom(deg int) string {
	d := math.Mod(float64(deg), 360)
	if d < 0 {
		d += 360
	}
	return compassPoints[int(math.Round(d/22.5))%16]
}
