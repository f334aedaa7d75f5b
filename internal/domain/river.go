package domain

import "time"

// Trend describes the direction of the last change in height.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendSteady  Trend = "steady"
	TrendUnknown Trend = ""
)

// RiverHeight is the latest observed reading with its derived status.
type RiverHeight struct {
	Height         float64   `json:"height"`
	Unit           string    `json:"unit"`
	Timestamp      time.Time `json:"timestamp"`
	Location       string    `json:"location"`
	Status         Status    `json:"status"`
	PreviousHeight *float64  `json:"previousHeight,omitempty"`
	Trend          Trend     `json:"trend,omitempty"`
}

// NewRiverHeight builds a RiverHeight from the latest readings, newest first.
// It returns false when readings is empty.
func NewRiverHeight(readings []TideSample, location string, t Thresholds) (RiverHeight, bool) {
	if len(readings) == 0 {
		return RiverHeight{}, false
	}
	latest := readings[0]
	rh := RiverHeight{
		Height:    latest.Value,
		Unit:      "m",
		Timestamp: latest.Moment,
		Location:  location,
		Status:    Classify(latest.Value, t),
	}
	if len(readings) > 1 {
		prev := readings[1].Value
		rh.PreviousHeight = &prev
		rh.Trend = trendBetween(prev, latest.Value)
	}
	return rh, true
}

// WithThresholds returns a copy of rh with its status recomputed.
func (rh RiverHeight) WithThresholds(t Thresholds) RiverHeight {
	rh.Status = Classify(rh.Height, t)
	return rh
}

// trendEpsilon absorbs the gauge's centimeter rounding.
const trendEpsilon = 0.005

func trendBetween(prev, cur float64) Trend {
	switch d := cur - prev; {
	case d > trendEpsilon:
		return TrendRising
	case d < -trendEpsilon:
		return TrendFalling
	default:
		return TrendSteady
	}
}
