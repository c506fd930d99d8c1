package domain

import (
	"errors"
	"fmt"
)

// ErrShortRow rejects a row with fewer than two fields.
var ErrShortRow = errors.New("row has fewer than two fields")

// ErrInsufficientData is a warning, not a failure: the source returned no rows
// or only the header, so there is nothing to aggregate.
var ErrInsufficientData = errors.New("no data found or not enough data")

// TimestampParseError rejects a row whose timestamp matches no known layout.
type TimestampParseError struct {
	Text string
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("parse timestamp %q: no known layout matched", e.Text)
}

// AuthenticationError means credentials could not be acquired or were refused
// before any rows were read.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// FetchError means the data source call itself failed (network, permission,
// quota, malformed range).
type FetchError struct {
	Range string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch range %q: %v", e.Range, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RejectReason classifies a per-row rejection for logs and metrics.
func RejectReason(err error) string {
	var tsErr *TimestampParseError
	switch {
	case errors.Is(err, ErrShortRow):
		return "short_row"
	case errors.As(err, &tsErr):
		return "bad_timestamp"
	default:
		return "other"
	}
}
