// Package domain models river-height monitoring data for the San Fernando
// gauge and the pure logic that classifies and correlates it.
//
// # Data Sources
//
// Tide samples are written by an external collector into a single tides
// table. Each row carries a moment, a kind, and a height in meters:
//
//	reading       observed height reported by the gauge
//	astronomical  predicted baseline height for the same clock time
//
// The two kinds form independent, unaligned series. A reading may exist at a
// moment with no astronomical value and vice versa.
//
// Forecast batches are issued a few times a day and carry the next high and
// low tides ("high" / "low" mode) with their predicted heights.
//
// # Status Classification
//
// Status is derived from a height and a [Thresholds] value and is never
// stored. Thresholds are inclusive lower bounds:
//
//	height >= critical  -> critical
//	height >= alert     -> alert
//	height >= warning   -> warning
//	otherwise           -> normal
//
// Defaults are 2.5 m / 3.0 m / 3.5 m. Every status has an explicit rank so
// escalation checks compare integers, not labels.
//
// # Nearest-Match
//
// Flood reports are annotated with the reading closest in time to the report
// timestamp. The lookup runs two bounded queries (latest at-or-before and
// earliest at-or-after the target) and [PickNearest] chooses between them.
// An exact tie goes to the earlier sample. The annotation is a snapshot taken
// at submission time and is never recomputed.
//
// # Wind Direction
//
// Wind degrees follow the meteorological convention: the direction the wind
// blows from, clockwise from true north. [CompassFrom] names the sector.
package domain
