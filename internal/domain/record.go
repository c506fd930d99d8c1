package domain

import "time"

// RawRow is one row as returned by a tabular data source.
type RawRow struct {
	Line   int // 1-based position in the fetched range; the header is line 1
	Fields []string
}

// Timestamp returns the first field, or "" when the row is short.
func (r RawRow) Timestamp() string {
	if len(r.Fields) < 1 {
		return ""
	}
	return r.Fields[0]
}

// Destination returns the second field, or "" when the row is short.
func (r RawRow) Destination() string {
	if len(r.Fields) < 2 {
		return ""
	}
	return r.Fields[1]
}

// NormalizedRecord is a boarding event after parsing.
type NormalizedRecord struct {
	Line        int       `json:"line"`
	Timestamp   time.Time `json:"timestamp"`
	Destination string    `json:"destination"`
	Price       int64     `json:"price"`
}

// Credentials is an opaque secret handed from a credential provider to a source.
// Sources decide how to interpret it (service-account key, workbook password).
type Credentials []byte

// DestinationTally is the per-window count and revenue for one destination.
type DestinationTally struct {
	Rank        int    `json:"rank"`
	Destination string `json:"destination"`
	Passengers  int    `json:"passengers"`
	Price       int64  `json:"price"`
	Revenue     int64  `json:"revenue"`
}

// WindowReport ranks the destinations seen within one hour window.
type WindowReport struct {
	Window  HourWindow         `json:"window"`
	Tallies []DestinationTally `json:"tallies"`
	Revenue int64              `json:"revenue"`
}

// Passengers sums the passenger counts of all tallies in the window.
func (r WindowReport) Passengers() int {
	n := 0
	for _, t := range r.Tallies {
		n += t.Passengers
	}
	return n
}

// DailyReport is one WindowReport per configured window, in configuration order.
type DailyReport struct {
	Windows []WindowReport `json:"windows"`

	// CarriedRevenue is the accumulator value the caller passed in. A full run
	// passes zero.
	CarriedRevenue int64 `json:"carried_revenue"`
	TotalRevenue   int64 `json:"total_revenue"`
}
