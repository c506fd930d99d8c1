package domain

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJunctionSpaced = "Junction (150 KSH)"
	testJunctionTight  = "Junction (150KSH)"
)

func nairobi(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultLocation)
	require.NoError(t, err)
	return loc
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int64
	}{
		{"space before KSH", "X (150 KSH)", 150},
		{"no space before KSH", "X (150KSH)", 150},
		{"no annotation", "X", 0},
		{"lowercase currency", "Kenol (80ksh)", 80},
		{"several spaces", "Thika Road (200   KSH)", 200},
		{"first annotation wins", "A (10KSH) B (20KSH)", 10},
		{"missing parentheses", "Ruiru 150KSH", 0},
		{"non-numeric", "Ruiru (abcKSH)", 0},
		{"overflow", "Ruiru (99999999999999999999KSH)", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractPrice(tt.text))
		})
	}
}

func TestCleanDestination_Strict(t *testing.T) {
	assert.Equal(t, "Junction", CleanDestination(testJunctionTight))
	// The strict rule requires no space before KSH, so this name is left as-is
	// even though ExtractPrice reads 150 from it.
	assert.Equal(t, testJunctionSpaced, CleanDestination(testJunctionSpaced))
	assert.Equal(t, int64(150), ExtractPrice(testJunctionSpaced))

	assert.Equal(t, "Junction(150KSH)", CleanDestination("Junction(150KSH)"), "leading space is required")
	assert.Equal(t, "Kenol (80ksh)", CleanDestination("Kenol (80ksh)"), "strict rule is case-sensitive")
	assert.Equal(t, "Town", CleanDestination("Town"))
	assert.Equal(t, "A B", CleanDestination("A (1KSH) B (2KSH)"), "every occurrence is removed")
}

func TestCleaningRule_Tolerant(t *testing.T) {
	assert.Equal(t, "Junction", CleanTolerant.Clean(testJunctionTight))
	assert.Equal(t, "Junction", CleanTolerant.Clean(testJunctionSpaced))
	assert.Equal(t, "Kenol", CleanTolerant.Clean("Kenol (80 ksh)"))
	assert.Equal(t, "Town", CleanTolerant.Clean("Town"))
}

func TestParseCleaningRule(t *testing.T) {
	r, err := ParseCleaningRule(" Tolerant ")
	require.NoError(t, err)
	assert.Equal(t, CleanTolerant, r)

	_, err = ParseCleaningRule("loose")
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	loc := nairobi(t)

	tests := []struct {
		name     string
		text     string
		expected time.Time
	}{
		{"reference format", "11/1/2024 23:10:00", time.Date(2024, 11, 1, 23, 10, 0, 0, loc)},
		{"single digit hour", "11/1/2024 0:05:00", time.Date(2024, 11, 1, 0, 5, 0, 0, loc)},
		{"zero padded", "01/02/2024 06:30:15", time.Date(2024, 1, 2, 6, 30, 15, 0, loc)},
		{"surrounding whitespace", "  11/1/2024 23:10:00 ", time.Date(2024, 11, 1, 23, 10, 0, 0, loc)},
		{"iso", "2024-11-01 23:10:00", time.Date(2024, 11, 1, 23, 10, 0, 0, loc)},
		{"iso T", "2024-11-01T23:10:00", time.Date(2024, 11, 1, 23, 10, 0, 0, loc)},
		{"rfc3339 converted", "2024-11-01T20:10:00Z", time.Date(2024, 11, 1, 23, 10, 0, 0, loc)},
		{"short display", "11/1/24 23:10", time.Date(2024, 11, 1, 23, 10, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.text, loc)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "want %s, got %s", tt.expected, got)
			assert.Equal(t, tt.expected.Hour(), got.Hour())
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, text := range []string{"not-a-date", "", "13/45/2024 10:00:00", "11/1/2024"} {
		_, err := ParseTimestamp(text, nil)
		var tsErr *TimestampParseError
		require.ErrorAs(t, err, &tsErr, text)
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	loc := nairobi(t)
	n := NewNormalizer(loc, "")

	t.Run("valid row", func(t *testing.T) {
		rec, err := n.Normalize(RawRow{Line: 2, Fields: []string{"11/1/2024 23:10:00", "A (100KSH)"}})
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Line)
		assert.Equal(t, "A", rec.Destination)
		assert.Equal(t, int64(100), rec.Price)
		assert.Equal(t, 23, rec.Timestamp.Hour())
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		rec, err := n.Normalize(RawRow{Line: 3, Fields: []string{"11/1/2024 1:00:00", "B", "driver note"}})
		require.NoError(t, err)
		assert.Equal(t, "B", rec.Destination)
		assert.Equal(t, int64(0), rec.Price)
	})

	t.Run("short row", func(t *testing.T) {
		_, err := n.Normalize(RawRow{Line: 4, Fields: []string{"11/1/2024 1:00:00"}})
		require.ErrorIs(t, err, ErrShortRow)
		assert.Contains(t, err.Error(), "line 4")
		assert.Equal(t, "short_row", RejectReason(err))
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := n.Normalize(RawRow{Line: 5, Fields: []string{"not-a-date", "A (100KSH)"}})
		var tsErr *TimestampParseError
		require.ErrorAs(t, err, &tsErr)
		assert.Equal(t, "not-a-date", tsErr.Text)
		assert.Equal(t, "bad_timestamp", RejectReason(err))
	})

	t.Run("tolerant rule", func(t *testing.T) {
		tolerant := NewNormalizer(loc, CleanTolerant)
		rec, err := tolerant.Normalize(RawRow{Line: 6, Fields: []string{"11/1/2024 1:00:00", testJunctionSpaced}})
		require.NoError(t, err)
		assert.Equal(t, "Junction", rec.Destination)
		assert.Equal(t, int64(150), rec.Price)
	})
}

func TestRejectReason_Other(t *testing.T) {
	assert.Equal(t, "other", RejectReason(errors.New("boom")))
}
