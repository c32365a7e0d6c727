package series

import "time"

// maxOccurrenceSteps caps every stepping loop. A weekly series runs for
// almost a century before hitting it; pathological inputs (count and end
// both unbounded with everything cancelled) terminate instead of spinning.
const maxOccurrenceSteps = 5000

// NextOccurrence returns the first occurrence on or after asOf, or false if
// the series has none left.
//
// For RuleNone the anchor is returned only while it is strictly in the
// future and not cancelled. For recurring rules the stepper walks from the
// anchor, skipping cancelled dates, and gives up when the end date is
// exceeded or the occurrence count is exhausted before a valid date is
// reached.
//
// asOf is compared at day granularity: an occurrence later today is still
// the next occurrence.
func NextOccurrence(s *Series, asOf time.Time) (time.Time, bool) {
	if !s.Recurring() {
		if s.Anchor.After(asOf) && !s.IsCancelled(s.Anchor) {
			return s.Anchor, true
		}
		return time.Time{}, false
	}

	asOfKey := DateKey(asOf)
	for n := 0; n < maxOccurrenceSteps; n++ {
		if s.Count > 0 && n >= s.Count {
			return time.Time{}, false
		}
		d := occurrenceAt(s, n)
		if pastEnd(s, d) {
			return time.Time{}, false
		}
		if s.IsCancelled(d) {
			continue
		}
		if DateKey(d) >= asOfKey {
			return d, true
		}
	}
	return time.Time{}, false
}

// OccurrencesInRange returns every non-cancelled occurrence with
// rangeStart <= date <= rangeEnd, in ascending order. Dates before the
// range are stepped past without being emitted. The walk stops at the
// series end date, its occurrence count, or rangeEnd, whichever comes
// first.
func OccurrencesInRange(s *Series, rangeStart, rangeEnd time.Time) []time.Time {
	if rangeEnd.Before(rangeStart) {
		return nil
	}

	startKey := DateKey(rangeStart)
	endKey := DateKey(rangeEnd)

	if !s.Recurring() {
		k := DateKey(s.Anchor)
		if k >= startKey && k <= endKey && !s.IsCancelled(s.Anchor) {
			return []time.Time{s.Anchor}
		}
		return nil
	}

	var out []time.Time
	for n := 0; n < maxOccurrenceSteps; n++ {
		if s.Count > 0 && n >= s.Count {
			break
		}
		d := occurrenceAt(s, n)
		if pastEnd(s, d) {
			break
		}
		k := DateKey(d)
		if k > endKey {
			break
		}
		if k < startKey || s.IsCancelled(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// occurrenceAt computes the n-th occurrence (0-based, anchor = 0).
// Each step is derived from the anchor so monthly clamping never drifts.
func occurrenceAt(s *Series, n int) time.Time {
	switch s.Rule {
	case RuleDaily:
		return s.Anchor.AddDate(0, 0, n)
	case RuleWeekly:
		return s.Anchor.AddDate(0, 0, 7*n)
	case RuleMonthly:
		return addMonthsClamped(s.Anchor, n)
	default:
		return s.Anchor
	}
}

// pastEnd reports whether d falls after the series end date.
func pastEnd(s *Series, d time.Time) bool {
	return !s.End.IsZero() && DateKey(d) > DateKey(s.End)
}

// addMonthsClamped shifts t by the given number of calendar months,
// clamping the day-of-month to the target month's length. time.AddDate is
// deliberately not used for the day component: it rolls Jan 31 + 1 month
// into March 2/3 instead of Feb 28/29.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	shifted := firstOfMonth.AddDate(0, months, 0)

	day := t.Day()
	if last := daysInMonth(shifted.Year(), shifted.Month()); day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
// Day 0 of the following month is the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
