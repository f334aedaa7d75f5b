package domain

import (
	"sort"
	"time"
)

// TideKind distinguishes observed readings from astronomical predictions.
type TideKind string

const (
	KindReading      TideKind = "reading"
	KindAstronomical TideKind = "astronomical"
)

// Valid reports whether k is a known kind.
func (k TideKind) Valid() bool {
	return k == KindReading || k == KindAstronomical
}

// TideSample is one stored height at a moment.
type TideSample struct {
	Moment time.Time `json:"moment"`
	Kind   TideKind  `json:"type"`
	Value  float64   `json:"value"`
}

// TideMatch is the result of a nearest-match lookup: the sample's value
// paired with its own moment.
type TideMatch struct {
	Value  float64   `json:"value"`
	Moment time.Time `json:"moment"`
}

// PickNearest chooses between the latest sample at or before target and the
// earliest sample at or after it. Either may be nil. When both exist the one
// with the strictly smaller gap wins and an exact tie goes to before. The
// bool is false only when both are nil.
func PickNearest(target time.Time, before, after *TideSample) (TideMatch, bool) {
	switch {
	case before == nil && after == nil:
		return TideMatch{}, false
	case after == nil:
		return TideMatch{Value: before.Value, Moment: before.Moment}, true
	case before == nil:
		return TideMatch{Value: after.Value, Moment: after.Moment}, true
	}

	beforeGap := absDuration(target.Sub(before.Moment))
	afterGap := absDuration(after.Moment.Sub(target))
	if afterGap < beforeGap {
		return TideMatch{Value: after.Value, Moment: after.Moment}, true
	}
	return TideMatch{Value: before.Value, Moment: before.Moment}, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// HistoricalEntry holds whichever kinds were sampled at exactly Moment.
type HistoricalEntry struct {
	Moment       time.Time `json:"moment"`
	Reading      *float64  `json:"reading,omitempty"`
	Astronomical *float64  `json:"astronomical,omitempty"`
}

// HistoricalSeries is a merged, chronologically ascending view of both kinds.
type HistoricalSeries []HistoricalEntry

// MergeSeries groups samples by exact moment equality into one entry per
// distinct moment and sorts the result ascending. Samples of an unknown kind
// are ignored. If a kind appears twice at the same moment the later sample in
// the input wins.
func MergeSeries(samples []TideSample) HistoricalSeries {
	byMoment := make(map[int64]*HistoricalEntry, len(samples))
	order := make([]int64, 0, len(samples))

	for _, s := range samples {
		if !s.Kind.Valid() {
			continue
		}
		key := s.Moment.UnixNano()
		entry, ok := byMoment[key]
		if !ok {
			entry = &HistoricalEntry{Moment: s.Moment}
			byMoment[key] = entry
			order = append(order, key)
		}
		v := s.Value
		switch s.Kind {
		case KindReading:
			entry.Reading = &v
		case KindAstronomical:
			entry.Astronomical = &v
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	series := make(HistoricalSeries, 0, len(order))
	for _, key := range order {
		series = append(series, *byMoment[key])
	}
	return series
}
