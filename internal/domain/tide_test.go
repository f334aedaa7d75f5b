package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

func sample(sec int, kind TideKind, v float64) *TideSample {
	return &TideSample{Moment: at(sec), Kind: kind, Value: v}
}

func TestPickNearest(t *testing.T) {
	before := sample(10, KindReading, 1.0)
	after := sample(20, KindReading, 2.0)

	tests := []struct {
		name       string
		target     int
		before     *TideSample
		after      *TideSample
		wantOK     bool
		wantMoment int
		wantValue  float64
	}{
		{"before closer", 14, before, after, true, 10, 1.0},
		{"after closer", 16, before, after, true, 20, 2.0},
		{"exact tie prefers before", 15, before, after, true, 10, 1.0},
		{"exact hit", 10, before, before, true, 10, 1.0},
		{"only after", 0, nil, after, true, 20, 2.0},
		{"only after far away", -100000, nil, after, true, 20, 2.0},
		{"only before", 99999, before, nil, true, 10, 1.0},
		{"neither", 15, nil, nil, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickNearest(at(tt.target), tt.before, tt.after)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Equal(t, TideMatch{}, got)
				return
			}
			assert.Equal(t, at(tt.wantMoment), got.Moment)
			assert.Equal(t, tt.wantValue, got.Value)
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestMergeSeries_SameMoment(t *testing.T) {
	got := MergeSeries([]TideSample{
		{Moment: at(60), Kind: KindReading, Value: 1.4},
		{Moment: at(60), Kind: KindAstronomical, Value: 1.1},
	})

	want := HistoricalSeries{{Moment: at(60), Reading: ptr(1.4), Astronomical: ptr(1.1)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged series mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSeries_DifferentMoments(t *testing.T) {
	got := MergeSeries([]TideSample{
		{Moment: at(120), Kind: KindAstronomical, Value: 0.9},
		{Moment: at(60), Kind: KindReading, Value: 1.4},
	})

	want := HistoricalSeries{
		{Moment: at(60), Reading: ptr(1.4)},
		{Moment: at(120), Astronomical: ptr(0.9)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged series mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSeries_EqualInstantDifferentZones(t *testing.T) {
	buenosAires := time.FixedZone("ART", -3*60*60)
	got := MergeSeries([]TideSample{
		{Moment: at(0), Kind: KindReading, Value: 1},
		{Moment: at(0).In(buenosAires), Kind: KindAstronomical, Value: 2},
	})

	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Reading)
	assert.NotNil(t, got[0].Astronomical)
}

func TestMergeSeries_Edges(t *testing.T) {
	assert.Empty(t, MergeSeries(nil))

	got := MergeSeries([]TideSample{
		{Moment: at(0), Kind: "forecast", Value: 9},
		{Moment: at(0), Kind: KindReading, Value: 1},
		{Moment: at(0), Kind: KindReading, Value: 2},
	})
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, *got[0].Reading)
	assert.Nil(t, got[0].Astronomical)
}
