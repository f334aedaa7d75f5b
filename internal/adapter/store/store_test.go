package store_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/river-height-service/internal/adapter/store"
	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/thresholds"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sample(kind domain.TideKind, minutes int, v float64) domain.TideSample {
	return domain.TideSample{Moment: base.Add(time.Duration(minutes) * time.Minute), Kind: kind, Value: v}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := store.Open("mysql", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestDB_CheckReadiness(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.CheckReadiness(context.Background()))
}

// --- tides ---

func TestTides_BoundedQueries(t *testing.T) {
	ctx := context.Background()
	tides := openTestDB(t).Tides()
	require.NoError(t, tides.Insert(ctx, []domain.TideSample{
		sample(domain.KindReading, 10, 1.0),
		sample(domain.KindReading, 20, 2.0),
		sample(domain.KindAstronomical, 15, 9.0),
	}))

	before, err := tides.LatestAtOrBefore(ctx, domain.KindReading, base.Add(15*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.InDelta(t, 1.0, before.Value, 1e-9)
	assert.True(t, base.Add(10*time.Minute).Equal(before.Moment))

	after, err := tides.EarliestAtOrAfter(ctx, domain.KindReading, base.Add(15*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.InDelta(t, 2.0, after.Value, 1e-9)

	exact, err := tides.EarliestAtOrAfter(ctx, domain.KindReading, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, exact)
	assert.InDelta(t, 1.0, exact.Value, 1e-9)

	none, err := tides.LatestAtOrBefore(ctx, domain.KindReading, base)
	require.NoError(t, err)
	assert.Nil(t, none)

	astro, err := tides.LatestAtOrBefore(ctx, domain.KindAstronomical, base.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, astro)
	assert.Equal(t, domain.KindAstronomical, astro.Kind)
}

func TestTides_QueriesConvertTimeZones(t *testing.T) {
	ctx := context.Background()
	tides := openTestDB(t).Tides()
	require.NoError(t, tides.Insert(ctx, []domain.TideSample{sample(domain.KindReading, 0, 1.5)}))

	buenosAires := time.FixedZone("ART", -3*60*60)
	got, err := tides.LatestAtOrBefore(ctx, domain.KindReading, base.In(buenosAires))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, base.Equal(got.Moment))
}

func TestTides_InsertRejectsUnknownKind(t *testing.T) {
	err := openTestDB(t).Tides().Insert(context.Background(), []domain.TideSample{sample("surge", 0, 1)})
	require.Error(t, err)
}

func TestTides_SinceAndMerge(t *testing.T) {
	ctx := context.Background()
	tides := openTestDB(t).Tides()
	require.NoError(t, tides.Insert(ctx, []domain.TideSample{
		sample(domain.KindReading, -60, 0.5),
		sample(domain.KindReading, 0, 1.0),
		sample(domain.KindAstronomical, 0, 1.1),
		sample(domain.KindAstronomical, 30, 1.4),
	}))

	samples, err := tides.Since(ctx, base)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	one, onePointOne, onePointFour := 1.0, 1.1, 1.4
	want := domain.HistoricalSeries{
		{Moment: base, Reading: &one, Astronomical: &onePointOne},
		{Moment: base.Add(30 * time.Minute), Astronomical: &onePointFour},
	}
	if diff := cmp.Diff(want, domain.MergeSeries(samples)); diff != "" {
		t.Errorf("merged series mismatch (-want +got):\n%s", diff)
	}
}

func TestTides_LatestReadings(t *testing.T) {
	ctx := context.Background()
	tides := openTestDB(t).Tides()
	require.NoError(t, tides.Insert(ctx, []domain.TideSample{
		sample(domain.KindReading, 0, 1.0),
		sample(domain.KindReading, 10, 1.2),
		sample(domain.KindReading, 20, 1.1),
		sample(domain.KindAstronomical, 30, 5.0),
	}))

	got, err := tides.LatestReadings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 1.1, got[0].Value, 1e-9)
	assert.InDelta(t, 1.2, got[1].Value, 1e-9)
}

// --- forecasts ---

func TestForecasts_Latest(t *testing.T) {
	ctx := context.Background()
	forecasts := openTestDB(t).Forecasts()

	none, err := forecasts.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	older := domain.ForecastBatch{Moment: base, Values: []domain.ForecastEntry{{Date: base.Add(time.Hour), Mode: domain.ForecastHigh, Value: 1.9}}}
	newer := domain.ForecastBatch{Moment: base.Add(6 * time.Hour), Values: []domain.ForecastEntry{
		{Date: base.Add(8 * time.Hour), Mode: domain.ForecastLow, Value: 0.4},
		{Date: base.Add(14 * time.Hour), Mode: domain.ForecastHigh, Value: 2.1},
	}}
	require.NoError(t, forecasts.Insert(ctx, newer))
	require.NoError(t, forecasts.Insert(ctx, older))

	got, err := forecasts.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, newer.Moment.Equal(got.Moment))
	require.Len(t, got.Values, 2)
	assert.Equal(t, domain.ForecastLow, got.Values[0].Mode)
	assert.InDelta(t, 2.1, got.Values[1].Value, 1e-9)
}

// --- reports ---

func TestReports_InsertAndList(t *testing.T) {
	ctx := context.Background()
	reports := openTestDB(t).Reports()

	height := 1.23
	tideAt := base.Add(-5 * time.Minute)
	name := "Ana"
	for i, state := range []domain.FloodState{domain.StateNoWater, domain.StateHighFlood, domain.StateLowFlood} {
		r := domain.FloodReport{
			ID:        string(rune('a'+i)) + "-report",
			Location:  domain.Location{Latitude: -34.4, Longitude: -58.5},
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			State:     state,
			CreatedAt: base,
		}
		if i == 1 {
			r.TideHeight = &height
			r.TideHeightTimestamp = &tideAt
			r.ReporterName = &name
		}
		require.NoError(t, reports.Insert(ctx, r))
	}

	got, err := reports.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.StateLowFlood, got[0].State)
	assert.Equal(t, domain.StateHighFlood, got[1].State)
	assert.Nil(t, got[0].TideHeight)
	require.NotNil(t, got[1].TideHeight)
	assert.InDelta(t, 1.23, *got[1].TideHeight, 1e-9)
	require.NotNil(t, got[1].TideHeightTimestamp)
	assert.True(t, tideAt.Equal(*got[1].TideHeightTimestamp))
	require.NotNil(t, got[1].ReporterName)
	assert.Equal(t, "Ana", *got[1].ReporterName)
	assert.Nil(t, got[1].ReporterEmail)
}

// --- settings ---

func TestSettings_LoadSave(t *testing.T) {
	ctx := context.Background()
	settings := openTestDB(t).Settings()

	_, ok, err := settings.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, settings.Save(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, settings.Save(ctx, "k", []byte(`{"a":2}`)))

	raw, ok, err := settings.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(raw))
}

func TestSettings_BackThresholdStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	want := domain.Thresholds{Warning: 1.8, Alert: 2.2, Critical: 2.9}
	require.NoError(t, thresholds.New(ctx, db.Settings(), logger).Set(ctx, want))

	reopened := thresholds.New(ctx, db.Settings(), logger)
	assert.Equal(t, want, reopened.Get())
}

// --- analytics ---

func TestAnalytics_RecordRejectsMissingFields(t *testing.T) {
	err := openTestDB(t).Analytics().Record(context.Background(), domain.AnalyticsEvent{Path: "/"})
	require.ErrorIs(t, err, domain.ErrInvalidAnalyticsEvent)
}

func TestAnalytics_Summary(t *testing.T) {
	ctx := context.Background()
	analytics := openTestDB(t).Analytics()

	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	events := []domain.AnalyticsEvent{
		{SessionID: "s1", Path: "/", Timestamp: day1},
		{SessionID: "s1", Path: "/", Timestamp: day1.Add(time.Minute)},
		{SessionID: "s2", Path: "/reports", EventName: "submit", Timestamp: day1.Add(2 * time.Minute)},
		{SessionID: "s1", Path: "/", Timestamp: day2},
		{SessionID: "s3", Path: "/", Timestamp: day2.Add(time.Minute), ScreenWidth: 390},
	}
	for _, e := range events {
		require.NoError(t, analytics.Record(ctx, e))
	}

	got, err := analytics.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(5), got.TotalEvents)
	assert.Equal(t, int64(3), got.UniqueSessions)
	assert.Equal(t, []domain.EventCount{
		{Path: "/", Count: 4},
		{Path: "/reports", EventName: "submit", Count: 1},
	}, got.EventViews)
	assert.Equal(t, []domain.DayCount{{Date: "2024-03-01", Count: 3}, {Date: "2024-03-02", Count: 2}}, got.EventsByDay)
	assert.Equal(t, []domain.DayCount{{Date: "2024-03-01", Count: 2}, {Date: "2024-03-02", Count: 2}}, got.UniqueSessionsByDay)
	assert.Equal(t, []domain.DayCount{{Date: "2024-03-01", Count: 2}, {Date: "2024-03-02", Count: 1}}, got.NewSessionsByDay)
}

func TestAnalytics_EmptySummary(t *testing.T) {
	got, err := openTestDB(t).Analytics().Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.TotalEvents)
	assert.Empty(t, got.EventViews)
	assert.NotNil(t, got.EventsByDay)
}
