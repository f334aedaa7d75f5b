// Command seedtides loads tide samples and forecast batches from CSV files
// into the configured store. It stands in for the external gauge feed when
// running locally or in tests.
//
// Usage:
//
//	STORE_DSN=river-height.db go run ./cmd/seedtides \
//	  -csv testdata/tides.csv \
//	  -forecast testdata/forecast.csv
//
// The tide file has the header kind,moment,value and the forecast file has
// moment,date,mode,value. All times are RFC3339.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/river-height-service/internal/adapter/store"
	"github.com/couchcryptid/river-height-service/internal/config"
	"github.com/couchcryptid/river-height-service/internal/domain"
	"github.com/couchcryptid/river-height-service/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tidesPath := flag.String("csv", "", "CSV file of tide samples (kind,moment,value)")
	forecastPath := flag.String("forecast", "", "optional CSV file of forecast entries (moment,date,mode,value)")
	flag.Parse()

	if *tidesPath == "" {
		flag.Usage()
		return errors.New("missing required flag: -csv")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(cfg.StoreDriver, cfg.StoreDSN, observability.NewStderrLogger(cfg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close() //nolint:errcheck // process exits right after

	ctx := context.Background()

	samples, err := readFile(*tidesPath, parseTides)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *tidesPath, err)
	}
	if err := db.Tides().Insert(ctx, samples); err != nil {
		return err
	}
	log.Printf("tides: %d samples", len(samples))
	printStats(samples)

	if *forecastPath == "" {
		return nil
	}
	batches, err := readFile(*forecastPath, parseForecasts)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *forecastPath, err)
	}
	for _, b := range batches {
		if err := db.Forecasts().Insert(ctx, b); err != nil {
			return err
		}
	}
	log.Printf("forecasts: %d batches", len(batches))
	return nil
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return parse(f)
}

// readRows returns the data rows of a CSV stream with a column index built
// from its header. Every name in required must be present.
func readRows(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, errors.New("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}
	return rows[1:], colIdx, nil
}

func parseTides(r io.Reader) ([]domain.TideSample, error) {
	rows, colIdx, err := readRows(r, "kind", "moment", "value")
	if err != nil {
		return nil, err
	}

	samples := make([]domain.TideSample, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		kind := domain.TideKind(get(row, colIdx, "kind"))
		if !kind.Valid() {
			return nil, fmt.Errorf("line %d: invalid kind %q", line, kind)
		}
		moment, err := time.Parse(time.RFC3339, get(row, colIdx, "moment"))
		if err != nil {
			return nil, fmt.Errorf("line %d: moment: %w", line, err)
		}
		value, err := strconv.ParseFloat(get(row, colIdx, "value"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", line, err)
		}
		samples = append(samples, domain.TideSample{Kind: kind, Moment: moment.UTC(), Value: value})
	}
	return samples, nil
}

// parseForecasts groups entries by issuance moment, oldest batch first.
func parseForecasts(r io.Reader) ([]domain.ForecastBatch, error) {
	rows, colIdx, err := readRows(r, "moment", "date", "mode", "value")
	if err != nil {
		return nil, err
	}

	byMoment := map[time.Time]*domain.ForecastBatch{}
	for i, row := range rows {
		line := i + 2
		moment, err := time.Parse(time.RFC3339, get(row, colIdx, "moment"))
		if err != nil {
			return nil, fmt.Errorf("line %d: moment: %w", line, err)
		}
		date, err := time.Parse(time.RFC3339, get(row, colIdx, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		mode := domain.ForecastMode(get(row, colIdx, "mode"))
		if mode != domain.ForecastHigh && mode != domain.ForecastLow {
			return nil, fmt.Errorf("line %d: invalid mode %q", line, mode)
		}
		value, err := strconv.ParseFloat(get(row, colIdx, "value"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", line, err)
		}

		moment = moment.UTC()
		b, ok := byMoment[moment]
		if !ok {
			b = &domain.ForecastBatch{Moment: moment}
			byMoment[moment] = b
		}
		b.Values = append(b.Values, domain.ForecastEntry{Date: date.UTC(), Mode: mode, Value: value})
	}

	batches := make([]domain.ForecastBatch, 0, len(byMoment))
	for _, b := range byMoment {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Moment.Before(batches[j].Moment) })
	return batches, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func printStats(samples []domain.TideSample) {
	counts := map[domain.TideKind]int{}
	var first, last time.Time
	for _, s := range samples {
		counts[s.Kind]++
		if first.IsZero() || s.Moment.Before(first) {
			first = s.Moment
		}
		if s.Moment.After(last) {
			last = s.Moment
		}
	}
	fmt.Printf("readings=%d astronomical=%d\n", counts[domain.KindReading], counts[domain.KindAstronomical])
	if len(samples) > 0 {
		fmt.Printf("range: %s .. %s\n", first.Format(time.RFC3339), last.Format(time.RFC3339))
	}
}
