package domain

import "time"

// ForecastMode marks a forecast entry as a high or low tide.
type ForecastMode string

const (
	ForecastHigh ForecastMode = "high"
	ForecastLow  ForecastMode = "low"
)

// ForecastEntry is one predicted high or low tide.
type ForecastEntry struct {
	Date  time.Time    `json:"date"`
	Mode  ForecastMode `json:"mode"`
	Value float64      `json:"value"`
}

// ForecastBatch groups the entries issued together at Moment.
type ForecastBatch struct {
	Moment time.Time       `json:"moment"`
	Values []ForecastEntry `json:"values"`
}
