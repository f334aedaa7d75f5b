package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidAnalyticsEvent is wrapped when a required field is missing.
var ErrInvalidAnalyticsEvent = errors.New("invalid analytics event")

// AnalyticsEvent is a page view or named interaction sent by a client.
type AnalyticsEvent struct {
	SessionID    string    `json:"sessionId"`
	Path         string    `json:"path"`
	Timestamp    time.Time `json:"timestamp"`
	EventName    string    `json:"eventName,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	Referrer     string    `json:"referrer,omitempty"`
	ScreenWidth  int       `json:"screenWidth,omitempty"`
	ScreenHeight int       `json:"screenHeight,omitempty"`
	Language     string    `json:"language,omitempty"`
}

// Validate checks the fields every event must carry.
func (e AnalyticsEvent) Validate() error {
	if strings.TrimSpace(e.SessionID) == "" || strings.TrimSpace(e.Path) == "" || e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing required fields", ErrInvalidAnalyticsEvent)
	}
	return nil
}

// EventCount is the number of events for one (path, event name) pair.
type EventCount struct {
	Path      string `json:"path"`
	EventName string `json:"eventName,omitempty"`
	Count     int64  `json:"count"`
}

// DayCount is a count for one UTC calendar day, formatted YYYY-MM-DD.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsSummary aggregates all recorded events.
type AnalyticsSummary struct {
	TotalEvents         int64        `json:"totalEvents"`
	UniqueSessions      int64        `json:"uniqueSessions"`
	EventViews          []EventCount `json:"eventViews"`
	EventsByDay         []DayCount   `json:"eventsByDay"`
	UniqueSessionsByDay []DayCount   `json:"uniqueSessionsByDay"`
	NewSessionsByDay    []DayCount   `json:"newSessionsByDay"`
}
