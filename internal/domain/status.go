package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidThresholds is returned when a threshold set violates
// 0 <= warning < alert < critical.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Thresholds are the inclusive lower bounds, in meters, of the warning,
// alert, and critical tiers.
type Thresholds struct {
	Warning  float64 `json:"warning"`
	Alert    float64 `json:"alert"`
	Critical float64 `json:"critical"`
}

// DefaultThresholds is used when nothing valid has been persisted.
var DefaultThresholds = Thresholds{Warning: 2.5, Alert: 3.0, Critical: 3.5}

// Validate reports whether t satisfies 0 <= warning < alert < critical.
// The returned error wraps ErrInvalidThresholds.
func (t Thresholds) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"warning", t.Warning},
		{"alert", t.Alert},
		{"critical", t.Critical},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidThresholds, f.name)
		}
	}
	switch {
	case t.Warning < 0:
		return fmt.Errorf("%w: warning must be >= 0, got %g", ErrInvalidThresholds, t.Warning)
	case t.Alert <= t.Warning:
		return fmt.Errorf("%w: alert (%g) must be greater than warning (%g)", ErrInvalidThresholds, t.Alert, t.Warning)
	case t.Critical <= t.Alert:
		return fmt.Errorf("%w: critical (%g) must be greater than alert (%g)", ErrInvalidThresholds, t.Critical, t.Alert)
	}
	return nil
}

// Status is the danger level derived from a river height.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusAlert    Status = "alert"
	StatusCritical Status = "critical"
)

var statusRanks = map[Status]int{
	StatusNormal:   0,
	StatusWarning:  1,
	StatusAlert:    2,
	StatusCritical: 3,
}

// Rank returns the ordinal of s: normal=0, warning=1, alert=2, critical=3.
// Unknown values rank -1 so they never compare as an escalation target.
func (s Status) Rank() int {
	if r, ok := statusRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the four known levels.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// IsAlarming reports whether s is alert or critical.
func (s Status) IsAlarming() bool {
	return s.Rank() >= StatusAlert.Rank()
}

// Escalated reports whether moving from prev to s is a change into alert or
// critical, including critical falling back to alert. An empty prev (no
// previous observation) never counts as an escalation.
func (s Status) Escalated(prev Status) bool {
	return prev != "" && s != prev && s.IsAlarming()
}

// Classify maps a height to a status using inclusive lower bounds, so a
// boundary value belongs to the higher tier.
func Classify(height float64, t Thresholds) Status {
	switch {
	case height >= t.Critical:
		return StatusCritical
	case height >= t.Alert:
		return StatusAlert
	case height >= t.Warning:
		return StatusWarning
	default:
		return StatusNormal
	}
}
