package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// priceRe finds a parenthesized price with an optional space before the
	// currency marker, e.g. "Junction (150 KSH)" or "Junction (150ksh)" -> 150.
	priceRe = regexp.MustCompile(`(?i)\((\d+)\s*KSH\)`)

	// strictCleanRe is the historical name-cleaning pattern: a leading space and
	// no space between the digits and "KSH". It does not match
	// "Junction (150 KSH)", so that name keeps its annotation.
	strictCleanRe = regexp.MustCompile(` \(\d+KSH\)`)

	// tolerantCleanRe strips every annotation priceRe can extract from.
	tolerantCleanRe = regexp.MustCompile(`(?i) \(\d+\s*KSH\)`)
)

// TimestampLayouts are tried in order; the first successful parse wins.
var TimestampLayouts = []string{
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/06 15:04",
}

// DefaultLocation is the zone naive timestamps are read in.
const DefaultLocation = "Africa/Nairobi"

// CleaningRule selects how the price annotation is removed from a destination name.
type CleaningRule string

const (
	// CleanStrict removes only " (<digits>KSH)" with no inner space. This is
	// the rule historical reports were produced with.
	CleanStrict CleaningRule = "strict"
	// CleanTolerant also removes " (<digits> KSH)", in any letter case.
	CleanTolerant CleaningRule = "tolerant"
)

// ParseCleaningRule validates a configured rule name.
func ParseCleaningRule(s string) (CleaningRule, error) {
	switch r := CleaningRule(strings.ToLower(strings.TrimSpace(s))); r {
	case CleanStrict, CleanTolerant:
		return r, nil
	default:
		return "", fmt.Errorf("unknown cleaning rule %q", s)
	}
}

// Clean applies the rule to a raw destination string.
func (r CleaningRule) Clean(destination string) string {
	if r == CleanTolerant {
		return tolerantCleanRe.ReplaceAllString(destination, "")
	}
	return strictCleanRe.ReplaceAllString(destination, "")
}

// CleanDestination strips the price annotation using the strict rule.
func CleanDestination(destination string) string {
	return CleanStrict.Clean(destination)
}

// ExtractPrice returns the first "(<digits> KSH)" price in the text, or 0 when
// there is none. Digits that overflow int64 are treated as no price.
func ExtractPrice(destination string) int64 {
	m := priceRe.FindStringSubmatch(destination)
	if len(m) != 2 {
		return 0
	}
	price, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return price
}

// ParseTimestamp reads text using TimestampLayouts. Layouts without a zone
// offset are interpreted in loc; a nil loc means UTC.
func ParseTimestamp(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	text = strings.TrimSpace(text)
	for _, layout := range TimestampLayouts {
		t, err := time.ParseInLocation(layout, text, loc)
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, &TimestampParseError{Text: text}
}

// Normalizer turns raw rows into records.
type Normalizer struct {
	Location *time.Location
	Cleaning CleaningRule
}

// NewNormalizer returns a Normalizer; an empty rule means CleanStrict.
func NewNormalizer(loc *time.Location, rule CleaningRule) Normalizer {
	if rule == "" {
		rule = CleanStrict
	}
	return Normalizer{Location: loc, Cleaning: rule}
}

// Normalize parses one row. Errors are per-row rejections: ErrShortRow or
// *TimestampParseError.
func (n Normalizer) Normalize(row RawRow) (NormalizedRecord, error) {
	if len(row.Fields) < 2 {
		return NormalizedRecord{}, fmt.Errorf("line %d: %w", row.Line, ErrShortRow)
	}

	ts, err := ParseTimestamp(row.Timestamp(), n.Location)
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("line %d: %w", row.Line, err)
	}

	destination := row.Destination()
	return NormalizedRecord{
		Line:        row.Line,
		Timestamp:   ts,
		Destination: n.Cleaning.Clean(destination),
		Price:       ExtractPrice(destination),
	}, nil
}
