package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StatusChange describes a status transition observed by a refresh or a
// threshold update.
type StatusChange struct {
	Location  string    `json:"location"`
	Status    Status    `json:"status"`
	Previous  Status    `json:"previous,omitempty"`
	Height    float64   `json:"height"`
	Timestamp time.Time `json:"timestamp"`
	Escalated bool      `json:"escalated"`
}

// Title returns the short headline, e.g. "Critical - San Fernando".
func (c StatusChange) Title() string {
	return fmt.Sprintf("%s - %s", c.Status.Label(), c.Location)
}

// Message returns the notification body.
func (c StatusChange) Message() string {
	return fmt.Sprintf("River height reached %.2f m at %s. Status: %s",
		c.Height, c.Timestamp.UTC().Format("2006-01-02 15:04 MST"), c.Status.Label())
}

// Label returns s capitalized for display.
func (s Status) Label() string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// StatusNotifier delivers status changes to subscribers outside the process.
type StatusNotifier interface {
	Notify(ctx context.Context, c StatusChange) error
}
