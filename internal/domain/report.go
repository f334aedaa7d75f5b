package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidReport is wrapped by every flood report validation failure.
var ErrInvalidReport = errors.New("invalid flood report")

// FloodState is the condition a reporter observed at their location.
type FloodState string

const (
	StateNoWater    FloodState = "no-water"
	StateLowFlood   FloodState = "low-flood"
	StateHighFlood  FloodState = "high-flood"
	StateEvacuation FloodState = "evacuation"
)

// Valid reports whether s is a known flood state.
func (s FloodState) Valid() bool {
	switch s {
	case StateNoWater, StateLowFlood, StateHighFlood, StateEvacuation:
		return true
	default:
		return false
	}
}

// Location is a WGS-84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FloodReport is a crowd-sourced observation. TideHeight and
// TideHeightTimestamp are resolved once at creation and never updated.
type FloodReport struct {
	ID                  string     `json:"id"`
	Location            Location   `json:"location"`
	Timestamp           time.Time  `json:"timestamp"`
	State               FloodState `json:"state"`
	EstimatedLevelCm    *float64   `json:"estimatedLevelCm"`
	ReporterName        *string    `json:"reporterName"`
	ReporterEmail       *string    `json:"reporterEmail"`
	TideHeight          *float64   `json:"tideHeight"`
	TideHeightTimestamp *time.Time `json:"tideHeightTimestamp"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// ReportInput is a flood report as submitted by a client.
type ReportInput struct {
	Location         *Location  `json:"location"`
	Timestamp        string     `json:"timestamp"`
	State            FloodState `json:"state"`
	EstimatedLevelCm *float64   `json:"estimatedLevelCm,omitempty"`
	ReporterName     string     `json:"reporterName,omitempty"`
	ReporterEmail    string     `json:"reporterEmail,omitempty"`
}

// Validate checks required fields and coordinate ranges and returns the
// parsed report timestamp.
func (in ReportInput) Validate() (time.Time, error) {
	if in.Location == nil {
		return time.Time{}, fmt.Errorf("%w: invalid location data", ErrInvalidReport)
	}
	if !in.State.Valid() {
		return time.Time{}, fmt.Errorf("%w: invalid flood state %q", ErrInvalidReport, in.State)
	}
	if strings.TrimSpace(in.Timestamp) == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", ErrInvalidReport)
	}
	if in.Location.Latitude < -90 || in.Location.Latitude > 90 {
		return time.Time{}, fmt.Errorf("%w: invalid latitude", ErrInvalidReport)
	}
	if in.Location.Longitude < -180 || in.Location.Longitude > 180 {
		return time.Time{}, fmt.Errorf("%w: invalid longitude", ErrInvalidReport)
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(in.Timestamp))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp must be RFC3339: %v", ErrInvalidReport, err)
	}
	return ts, nil
}

// NewFloodReport builds the record to persist from a validated input, its
// parsed timestamp, and the correlated tide reading (nil when none).
func NewFloodReport(in ReportInput, ts time.Time, tide *TideMatch) FloodReport {
	r := FloodReport{
		ID:               uuid.NewString(),
		Location:         *in.Location,
		Timestamp:        ts.UTC(),
		State:            in.State,
		EstimatedLevelCm: in.EstimatedLevelCm,
		ReporterName:     optionalString(in.ReporterName),
		ReporterEmail:    optionalString(in.ReporterEmail),
		CreatedAt:        clock.Now().UTC(),
	}
	if tide != nil {
		height := tide.Value
		at := tide.Moment.UTC()
		r.TideHeight = &height
		r.TideHeightTimestamp = &at
	}
	return r
}

// optionalString maps blank strings to nil so they are stored as null.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
