// Command validate checks a boarding-row export before it is used for a
// report: row shape, timestamp parsing, price annotations, and names that
// the strict and tolerant cleaning rules would treat differently.
//
// Usage:
//
//	go run ./cmd/validate -path data/trips.xlsx
//	go run ./cmd/validate -path data/trips.csv -range A1:B5000 -timezone UTC
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("path", "data/trips.xlsx", "workbook (.xlsx) or CSV export to check")
	rangeID := flag.String("range", "PRIORITY!A1:B1000", "range to read")
	tz := flag.String("timezone", domain.DefaultLocation, "zone for timestamps without an offset")
	windows := flag.String("windows", "23-0,0-1,1-2,2-3,3-4,4-5,5-6,6-7", "configured hour windows")
	windowMode := flag.String("window-mode", string(domain.WindowLegacy), "window membership: legacy or interval")
	flag.Parse()

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load timezone: %v\n", err)
		os.Exit(1)
	}
	ws, err := domain.ParseWindows(*windows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse windows: %v\n", err)
		os.Exit(1)
	}

	mode, err := domain.ParseWindowMode(*windowMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse window mode: %v\n", err)
		os.Exit(1)
	}

	rows, err := sourceFor(*path).Fetch(context.Background(), nil, *rangeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", *path, err)
		os.Exit(1)
	}

	fmt.Printf("=== Boarding Data Validation: %s ===\n", *path)
	if code := report(os.Stdout, validate(rows, loc, ws, mode)); code != 0 {
		os.Exit(code)
	}
}

func sourceFor(path string) pipeline.Source {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return csvfile.Source{Path: path}
	}
	return xlsx.Source{Path: path}
}

// validate runs every phase over rows, header first.
func validate(rows []domain.RawRow, loc *time.Location, windows []domain.HourWindow, mode domain.WindowMode) []*phase {
	if len(rows) < 2 {
		p := &phase{name: "Phase 0: Data Present"}
		p.errorf("%s", domain.ErrInsufficientData)
		return []*phase{p}
	}
	data := rows[1:]
	return []*phase{
		validateShape(rows[0], data),
		validateTimestamps(data, loc, windows, mode),
		validatePrices(data),
		validateCleaning(data),
	}
}

// report prints the phase summary and details and returns the exit code.
func report(w io.Writer, phases []*phase) int {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Fprintf(w, "  %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Row Shape ──

func validateShape(header domain.RawRow, data []domain.RawRow) *phase {
	p := &phase{name: "Phase 1: Row Shape"}

	if len(header.Fields) < 2 {
		p.errorf("header line %d: expected two columns, got %d", header.Line, len(header.Fields))
	} else if _, ok := matchLayout(header.Timestamp(), time.UTC); ok {
		p.errorf("header line %d: first cell %q looks like data; is the header missing?", header.Line, header.Timestamp())
	}

	for _, row := range data {
		switch {
		case len(row.Fields) < 2:
			p.errorf("line %d: %d fields, need timestamp and destination", row.Line, len(row.Fields))
		case strings.TrimSpace(row.Destination()) == "":
			p.errorf("line %d: empty destination", row.Line)
		}
	}
	p.notef("%d data rows", len(data))
	return p
}

// ── Phase 2: Timestamps ──

func validateTimestamps(data []domain.RawRow, loc *time.Location, windows []domain.HourWindow, mode domain.WindowMode) *phase {
	p := &phase{name: "Phase 2: Timestamps"}

	layoutCounts := make(map[string]int)
	outside := 0
	for _, row := range data {
		if len(row.Fields) < 1 {
			continue
		}
		layout, ok := matchLayout(row.Timestamp(), loc)
		if !ok {
			p.errorf("line %d: unparseable timestamp %q", row.Line, row.Timestamp())
			continue
		}
		layoutCounts[layout]++

		ts, _ := domain.ParseTimestamp(row.Timestamp(), loc)
		if !inAnyWindow(ts, windows, mode) {
			outside++
		}
	}

	layouts := make([]string, 0, len(layoutCounts))
	for l := range layoutCounts {
		layouts = append(layouts, l)
	}
	sort.Strings(layouts)
	for _, l := range layouts {
		p.notef("layout %q: %d rows", l, layoutCounts[l])
	}
	if outside > 0 {
		p.notef("%d rows fall outside every configured window and are never counted", outside)
	}
	return p
}

func matchLayout(text string, loc *time.Location) (string, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range domain.TimestampLayouts {
		if _, err := time.ParseInLocation(layout, text, loc); err == nil {
			return layout, true
		}
	}
	return "", false
}

func inAnyWindow(ts time.Time, windows []domain.HourWindow, mode domain.WindowMode) bool {
	for _, w := range windows {
		if mode.Contains(w, ts) {
			return true
		}
	}
	return false
}

// ── Phase 3: Price Annotations ──

func validatePrices(data []domain.RawRow) *phase {
	p := &phase{name: "Phase 3: Price Annotations"}

	prices := make(map[string]map[int64]int)
	var order []string
	unpriced := make(map[string]int)

	for _, row := range data {
		if len(row.Fields) < 2 {
			continue
		}
		raw := row.Destination()
		name := domain.CleanTolerant.Clean(raw)
		price := domain.ExtractPrice(raw)
		if price == 0 {
			unpriced[name]++
			continue
		}
		if _, ok := prices[name]; !ok {
			prices[name] = make(map[int64]int)
			order = append(order, name)
		}
		prices[name][price]++
	}

	for _, name := range order {
		if len(prices[name]) > 1 {
			p.errorf("destination %q has %d different prices: %v", name, len(prices[name]), sortedPrices(prices[name]))
		}
	}

	names := make([]string, 0, len(unpriced))
	for n := range unpriced {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		p.notef("destination %q has no price on %d rows and earns no revenue there", n, unpriced[n])
	}
	return p
}

func sortedPrices(m map[int64]int) []int64 {
	out := make([]int64, 0, len(m))
	for price := range m {
		out = append(out, price)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ── Phase 4: Name Cleaning ──
// Rows whose name the strict rule leaves annotated are ranked separately
// from the same destination written without the space.

func validateCleaning(data []domain.RawRow) *phase {
	p := &phase{name: "Phase 4: Name Cleaning"}

	for _, row := range data {
		if len(row.Fields) < 2 {
			continue
		}
		raw := row.Destination()
		strict := domain.CleanStrict.Clean(raw)
		tolerant := domain.CleanTolerant.Clean(raw)
		if strict != tolerant {
			p.errorf("line %d: %q cleans to %q (strict) but %q (tolerant)", row.Line, raw, strict, tolerant)
		}
	}
	return p
}
