package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// PriceMode decides which row's price a destination keeps within a window.
type PriceMode string

const (
	// PriceLastRow keeps the price of the last row processed, in input order.
	PriceLastRow PriceMode = "last-row"
	// PriceLatestTimestamp keeps the price of the row with the latest
	// timestamp; equal timestamps fall back to input order.
	PriceLatestTimestamp PriceMode = "latest-timestamp"
)

// ParsePriceMode validates a configured mode name.
func ParsePriceMode(s string) (PriceMode, error) {
	switch m := PriceMode(strings.ToLower(strings.TrimSpace(s))); m {
	case PriceLastRow, PriceLatestTimestamp:
		return m, nil
	default:
		return "", fmt.Errorf("unknown price mode %q", s)
	}
}

// AggregateOptions selects the aggregation strategies. The zero value is the
// historical behavior: legacy windows and last-row prices.
type AggregateOptions struct {
	Mode  WindowMode
	Price PriceMode
}

type tallyState struct {
	DestinationTally
	pricedAt time.Time
}

// AggregateWindow counts passengers per destination for the records inside w
// and ranks destinations by count, descending. Destinations with equal counts
// keep the order in which they were first seen.
func AggregateWindow(records []NormalizedRecord, w HourWindow, opts AggregateOptions) WindowReport {
	mode := opts.Mode
	if mode == "" {
		mode = WindowLegacy
	}

	index := make(map[string]int)
	var states []tallyState

	for _, rec := range records {
		if !mode.Contains(w, rec.Timestamp) {
			continue
		}

		i, seen := index[rec.Destination]
		if !seen {
			i = len(states)
			index[rec.Destination] = i
			states = append(states, tallyState{DestinationTally: DestinationTally{Destination: rec.Destination}})
		}

		s := &states[i]
		s.Passengers++
		if opts.Price == PriceLatestTimestamp && seen && rec.Timestamp.Before(s.pricedAt) {
			continue
		}
		s.Price = rec.Price
		s.pricedAt = rec.Timestamp
	}

	tallies := make([]DestinationTally, len(states))
	for i := range states {
		tallies[i] = states[i].DestinationTally
	}
	slices.SortStableFunc(tallies, func(a, b DestinationTally) int {
		return cmp.Compare(b.Passengers, a.Passengers)
	})

	report := WindowReport{Window: w, Tallies: tallies}
	for i := range report.Tallies {
		t := &report.Tallies[i]
		t.Rank = i + 1
		t.Revenue = int64(t.Passengers) * t.Price
		report.Revenue += t.Revenue
	}
	return report
}

// AggregateDay evaluates every window against the full record set, in order.
// carried is the caller-owned revenue accumulator; a full run passes 0, and
// the returned TotalRevenue is carried plus every window's revenue.
func AggregateDay(carried int64, records []NormalizedRecord, windows []HourWindow, opts AggregateOptions) DailyReport {
	report := DailyReport{
		Windows:        make([]WindowReport, 0, len(windows)),
		CarriedRevenue: carried,
		TotalRevenue:   carried,
	}
	for _, w := range windows {
		wr := AggregateWindow(records, w, opts)
		report.Windows = append(report.Windows, wr)
		report.TotalRevenue += wr.Revenue
	}
	return report
}
