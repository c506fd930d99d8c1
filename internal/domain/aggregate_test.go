package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func rec(line, hour, minute int, destination string, price int64) NormalizedRecord {
	return NormalizedRecord{Line: line, Timestamp: at(hour, minute), Destination: destination, Price: price}
}

func normalizeAll(t *testing.T, rows [][]string) []NormalizedRecord {
	t.Helper()
	n := NewNormalizer(time.UTC, CleanStrict)
	var out []NormalizedRecord
	for i, fields := range rows {
		r, err := n.Normalize(RawRow{Line: i + 2, Fields: fields})
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

func TestAggregateWindow_EndToEnd(t *testing.T) {
	records := normalizeAll(t, [][]string{
		{"11/1/2024 23:10:00", "A (100KSH)"},
		{"11/1/2024 23:40:00", "A (100KSH)"},
		{"11/1/2024 0:05:00", "B (200KSH)"},
	})
	require.Len(t, records, 3)

	got := AggregateWindow(records, HourWindow{23, 0}, AggregateOptions{})

	want := WindowReport{
		Window: HourWindow{23, 0},
		Tallies: []DestinationTally{
			{Rank: 1, Destination: "A", Passengers: 2, Price: 100, Revenue: 200},
			{Rank: 2, Destination: "B", Passengers: 1, Price: 200, Revenue: 200},
		},
		Revenue: 400,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("window report mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.Passengers())
}

func TestAggregateWindow_LastWriteWins(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 1, 10, "Kenol", 100),
		rec(3, 1, 20, "Kenol", 150),
	}

	got := AggregateWindow(records, HourWindow{1, 2}, AggregateOptions{})
	require.Len(t, got.Tallies, 1)
	assert.Equal(t, int64(150), got.Tallies[0].Price)
	assert.Equal(t, 2, got.Tallies[0].Passengers)
	assert.Equal(t, int64(300), got.Revenue)
}

func TestAggregateWindow_LastWriteWinsIsInputOrder(t *testing.T) {
	// Fetch order is not timestamp order: the later row carries the earlier time.
	records := []NormalizedRecord{
		rec(2, 1, 50, "Kenol", 100),
		rec(3, 1, 5, "Kenol", 150),
	}

	lastRow := AggregateWindow(records, HourWindow{1, 2}, AggregateOptions{Price: PriceLastRow})
	assert.Equal(t, int64(150), lastRow.Tallies[0].Price)

	latest := AggregateWindow(records, HourWindow{1, 2}, AggregateOptions{Price: PriceLatestTimestamp})
	assert.Equal(t, int64(100), latest.Tallies[0].Price)
	assert.Equal(t, 2, latest.Tallies[0].Passengers)
}

func TestAggregateWindow_LatestTimestampTieUsesInputOrder(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 1, 5, "Kenol", 100),
		rec(3, 1, 5, "Kenol", 120),
	}
	got := AggregateWindow(records, HourWindow{1, 2}, AggregateOptions{Price: PriceLatestTimestamp})
	assert.Equal(t, int64(120), got.Tallies[0].Price)
}

func TestAggregateWindow_StableRanking(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 2, 0, "C", 10),
		rec(3, 2, 1, "A", 10),
		rec(4, 2, 2, "B", 10),
		rec(5, 2, 3, "B", 10),
		rec(6, 2, 4, "D", 10),
		rec(7, 2, 5, "A", 10),
	}

	got := AggregateWindow(records, HourWindow{2, 3}, AggregateOptions{})

	var order []string
	var ranks []int
	for _, tally := range got.Tallies {
		order = append(order, tally.Destination)
		ranks = append(ranks, tally.Rank)
	}
	// A and B tie at 2 (A seen first); C and D tie at 1 (C seen first).
	assert.Equal(t, []string{"A", "B", "C", "D"}, order)
	assert.Equal(t, []int{1, 2, 3, 4}, ranks)

	for i := 1; i < len(got.Tallies); i++ {
		assert.GreaterOrEqual(t, got.Tallies[i-1].Passengers, got.Tallies[i].Passengers)
	}
}

func TestAggregateWindow_Empty(t *testing.T) {
	got := AggregateWindow([]NormalizedRecord{rec(2, 12, 0, "A", 10)}, HourWindow{1, 2}, AggregateOptions{})
	assert.Empty(t, got.Tallies)
	assert.Zero(t, got.Revenue)
	assert.Equal(t, HourWindow{1, 2}, got.Window)
}

func TestAggregateWindow_UnparsableRowExcluded(t *testing.T) {
	records := normalizeAll(t, [][]string{
		{"not-a-date", "A (100KSH)"},
		{"11/1/2024 1:15:00", "A (100KSH)"},
		{"11/1/2024 1:20:00"},
	})
	require.Len(t, records, 1)

	day := AggregateDay(0, records, DefaultWindows, AggregateOptions{})
	assert.Equal(t, int64(100), day.TotalRevenue)
	passengers := 0
	for _, w := range day.Windows {
		passengers += w.Passengers()
	}
	assert.Equal(t, 1, passengers, "rejected rows never reach a tally")
	assert.Equal(t, 1, day.Windows[2].Tallies[0].Passengers)
}

func TestAggregateDay_TotalIsSumOfWindows(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 23, 10, "A", 100),
		rec(3, 0, 5, "B", 200),
		rec(4, 1, 0, "A", 100),
		rec(5, 3, 30, "C", 50),
		rec(6, 6, 59, "C", 50),
		rec(7, 12, 0, "D", 500), // outside every default window
	}

	day := AggregateDay(0, records, DefaultWindows, AggregateOptions{})
	require.Len(t, day.Windows, len(DefaultWindows))

	var sum int64
	for i, w := range day.Windows {
		assert.Equal(t, DefaultWindows[i], w.Window, "windows keep configuration order")
		sum += w.Revenue
	}
	assert.Equal(t, sum, day.TotalRevenue)
	assert.Zero(t, day.CarriedRevenue)

	// Legacy 23-0 holds hour 0 as well, so B appears in both 23-0 and 0-1.
	assert.Equal(t, int64(300), day.Windows[0].Revenue)
	assert.Equal(t, int64(200), day.Windows[1].Revenue)
	assert.Equal(t, int64(700), day.TotalRevenue)
}

func TestAggregateDay_IntervalModeIsDisjoint(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 23, 10, "A", 100),
		rec(3, 0, 5, "B", 200),
	}

	day := AggregateDay(0, records, DefaultWindows, AggregateOptions{Mode: WindowInterval})
	assert.Equal(t, int64(100), day.Windows[0].Revenue)
	assert.Equal(t, int64(200), day.Windows[1].Revenue)
	assert.Equal(t, int64(300), day.TotalRevenue)
}

func TestAggregateDay_ResetIsIdempotent(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 23, 10, "A", 100),
		rec(3, 2, 5, "B", 200),
	}

	first := AggregateDay(0, records, DefaultWindows, AggregateOptions{})
	second := AggregateDay(0, records, DefaultWindows, AggregateOptions{})
	assert.Equal(t, first.TotalRevenue, second.TotalRevenue)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reruns differ (-first +second):\n%s", diff)
	}
}

func TestAggregateDay_WithoutResetDoubles(t *testing.T) {
	records := []NormalizedRecord{
		rec(2, 23, 10, "A", 100),
		rec(3, 2, 5, "B", 200),
	}

	first := AggregateDay(0, records, DefaultWindows, AggregateOptions{})
	// Carrying the previous total forward is the historical defect: the
	// second run reports twice the revenue.
	second := AggregateDay(first.TotalRevenue, records, DefaultWindows, AggregateOptions{})
	assert.Equal(t, 2*first.TotalRevenue, second.TotalRevenue)
	assert.Equal(t, first.TotalRevenue, second.CarriedRevenue)
}

func TestAggregateDay_NoWindows(t *testing.T) {
	day := AggregateDay(0, []NormalizedRecord{rec(2, 1, 0, "A", 1)}, nil, AggregateOptions{})
	assert.Empty(t, day.Windows)
	assert.Zero(t, day.TotalRevenue)
}

func TestParsePriceMode(t *testing.T) {
	m, err := ParsePriceMode("LATEST-TIMESTAMP")
	require.NoError(t, err)
	assert.Equal(t, PriceLatestTimestamp, m)

	_, err = ParsePriceMode("average")
	require.Error(t, err)
}
