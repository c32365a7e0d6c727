// Package series defines recurring meeting series and the occurrence
// arithmetic built on them.
//
// A Series is a recurrence definition: an anchor timestamp, a rule
// (none/daily/weekly/monthly), optional bounds (end date, occurrence count),
// and a set of cancelled dates. Occurrences are concrete calendar dates
// implied by the series; they are computed, never stored.
//
// All bound comparisons are made at day granularity via date keys
// (YYYY-MM-DD). Time-of-day is preserved on returned occurrences so callers
// can display the scheduled time, but two occurrences on the same calendar
// day are the same occurrence.
//
// Monthly stepping clamps: a series anchored on the 31st lands on the last
// day of shorter months and returns to the 31st whenever the month allows.
// The day-of-month never drifts because each step is computed from the
// anchor, not from the previous occurrence.
package series
