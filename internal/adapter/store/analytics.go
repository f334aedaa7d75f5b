package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const topEventViews = 20

// AnalyticsRepository records client analytics events.
type AnalyticsRepository struct {
	db *gorm.DB
}

// Record validates and stores one event.
func (r *AnalyticsRepository) Record(ctx context.Context, e domain.AnalyticsEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	row := analyticsRow{
		ID:           uuid.NewString(),
		SessionID:    e.SessionID,
		Path:         e.Path,
		EventName:    nonEmpty(e.EventName),
		Timestamp:    e.Timestamp.UTC(),
		UserAgent:    nonEmpty(e.UserAgent),
		Referrer:     nonEmpty(e.Referrer),
		ScreenWidth:  nonZero(e.ScreenWidth),
		ScreenHeight: nonZero(e.ScreenHeight),
		Language:     nonEmpty(e.Language),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// Summary aggregates every recorded event. Day buckets are UTC dates in
// ascending order.
func (r *AnalyticsRepository) Summary(ctx context.Context) (domain.AnalyticsSummary, error) {
	db := r.db.WithContext(ctx)
	summary := domain.AnalyticsSummary{
		EventViews:          []domain.EventCount{},
		EventsByDay:         []domain.DayCount{},
		UniqueSessionsByDay: []domain.DayCount{},
		NewSessionsByDay:    []domain.DayCount{},
	}

	if err := db.Model(&analyticsRow{}).Count(&summary.TotalEvents).Error; err != nil {
		return summary, fmt.Errorf("count analytics events: %w", err)
	}
	if err := db.Model(&analyticsRow{}).Distinct("session_id").Count(&summary.UniqueSessions).Error; err != nil {
		return summary, fmt.Errorf("count analytics sessions: %w", err)
	}

	err := db.Model(&analyticsRow{}).
		Select("path, COALESCE(event_name, '') AS event_name, COUNT(*) AS count").
		Group("path, event_name").
		Order("count DESC").
		Order("path ASC").
		Limit(topEventViews).
		Scan(&summary.EventViews).Error
	if err != nil {
		return summary, fmt.Errorf("count analytics event views: %w", err)
	}

	// Day bucketing is done here because date functions differ between drivers.
	var visits []struct {
		SessionID  string
		OccurredAt time.Time
	}
	if err := db.Model(&analyticsRow{}).Select("session_id, occurred_at").Order("occurred_at ASC").Scan(&visits).Error; err != nil {
		return summary, fmt.Errorf("load analytics visits: %w", err)
	}

	events := map[string]int64{}
	sessionsPerDay := map[string]map[string]struct{}{}
	firstSeen := map[string]string{}
	for _, v := range visits {
		day := v.OccurredAt.UTC().Format(time.DateOnly)
		events[day]++
		if sessionsPerDay[day] == nil {
			sessionsPerDay[day] = map[string]struct{}{}
		}
		sessionsPerDay[day][v.SessionID] = struct{}{}
		if _, ok := firstSeen[v.SessionID]; !ok {
			firstSeen[v.SessionID] = day
		}
	}
	newSessions := map[string]int64{}
	for _, day := range firstSeen {
		newSessions[day]++
	}
	unique := make(map[string]int64, len(sessionsPerDay))
	for day, sessions := range sessionsPerDay {
		unique[day] = int64(len(sessions))
	}

	summary.EventsByDay = dayCounts(events)
	summary.UniqueSessionsByDay = dayCounts(unique)
	summary.NewSessionsByDay = dayCounts(newSessions)
	return summary, nil
}

func dayCounts(m map[string]int64) []domain.DayCount {
	out := make([]domain.DayCount, 0, len(m))
	for day, n := range m {
		out = append(out, domain.DayCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
