// Package domain models passenger boarding records and the hourly
// destination rankings built from them.
//
// # Source Rows
//
// Each row of the boarding sheet is one passenger:
//
//	Timestamp            Destination
//	11/1/2024 23:10:00   Junction (100KSH)
//
// Timestamps are month/day/year on a 24-hour clock, as written by the form
// feeding the sheet. ISO year-month-day values are accepted as well; see
// [TimestampLayouts] for the full order.
//
// # Price Annotations
//
// Destinations carry their fare in parentheses, "<name> (<price>KSH)". Two
// patterns are involved and they are intentionally not the same:
//
//	price extraction:  (?i)\((\d+)\s*KSH\)   "Junction (150 KSH)" -> 150
//	strict cleaning:   " \(\d+KSH\)"          "Junction (150 KSH)" unchanged
//
// Reports produced so far used the strict rule, so a destination written with
// a space before KSH keeps its annotation in its name and is ranked
// separately. [CleanTolerant] removes both forms and can be opted into.
//
// # Windows
//
// A window is a configured pair of clock hours. Under [WindowLegacy] the
// 23-0 window is the hour set {23, 0}; every other window is start <= hour <
// end. [WindowInterval] treats every window as a half-open interval that may
// wrap past midnight.
//
// # Revenue
//
// Revenue for a destination is passengers x price, where price is the value
// from the last row processed for that destination in the window. The daily
// total is the sum over windows plus whatever accumulator the caller passed
// to [AggregateDay]; a full run always passes zero.
package domain
