package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HourWindow is a configured [Start, End) range of clock hours.
type HourWindow struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// DefaultWindows covers the overnight shift, 23:00 through 07:00.
var DefaultWindows = []HourWindow{
	{23, 0}, {0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7},
}

func (w HourWindow) String() string {
	return fmt.Sprintf("%d-%d", w.Start, w.End)
}

// Title is the heading rendered above the window's ranking.
func (w HourWindow) Title() string {
	return fmt.Sprintf("%d:00 – %d:00 Ranking", w.Start, w.End)
}

// Validate checks both bounds are clock hours and the window is not empty.
func (w HourWindow) Validate() error {
	if w.Start < 0 || w.Start > 23 || w.End < 0 || w.End > 23 {
		return fmt.Errorf("window %s: hours must be between 0 and 23", w)
	}
	if w.Start == w.End {
		return fmt.Errorf("window %s: start and end must differ", w)
	}
	return nil
}

// ParseWindows reads a comma-separated list such as "23-0,0-1,1-2".
func ParseWindows(s string) ([]HourWindow, error) {
	var windows []HourWindow
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		startStr, endStr, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("window %q: expected <start>-<end>", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(startStr))
		if err != nil {
			return nil, fmt.Errorf("window %q: parse start: %w", part, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(endStr))
		if err != nil {
			return nil, fmt.Errorf("window %q: parse end: %w", part, err)
		}
		w := HourWindow{Start: start, End: end}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows configured")
	}
	return windows, nil
}

// WindowMode decides which moments belong to a window.
type WindowMode string

const (
	// WindowLegacy is start <= hour < end, except that the 23-0 window is the
	// hour set {23, 0}. Hour 0 therefore also lands in a configured 0-1 window.
	WindowLegacy WindowMode = "legacy"
	// WindowInterval is a half-open interval that wraps past midnight when
	// start > end, so 23-0 is 23:00-23:59 and 22-2 is 22:00-01:59.
	WindowInterval WindowMode = "interval"
)

// ParseWindowMode validates a configured mode name.
func ParseWindowMode(s string) (WindowMode, error) {
	switch m := WindowMode(strings.ToLower(strings.TrimSpace(s))); m {
	case WindowLegacy, WindowInterval:
		return m, nil
	default:
		return "", fmt.Errorf("unknown window mode %q", s)
	}
}

// Contains reports whether t falls within w under this mode.
func (m WindowMode) Contains(w HourWindow, t time.Time) bool {
	h := t.Hour()
	if m == WindowInterval {
		switch {
		case w.Start < w.End:
			return w.Start <= h && h < w.End
		case w.Start > w.End:
			return h >= w.Start || h < w.End
		default:
			return false
		}
	}
	if w.Start == 23 && w.End == 0 {
		return h == 23 || h == 0
	}
	return w.Start <= h && h < w.End
}

// IsInWindow applies the legacy window semantics.
func IsInWindow(t time.Time, w HourWindow) bool {
	return WindowLegacy.Contains(w, t)
}
