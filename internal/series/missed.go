package series

import "time"

// MostRecentMissed returns the latest occurrence strictly before asOf that
// was neither finalized nor cancelled, or false when there is none.
//
// existing holds the date keys of occurrences that already have a finalized
// instance. The walk uses the same stepping rule as NextOccurrence and keeps
// overwriting its candidate, so the final answer is the most recent gap, not
// the earliest. Only one gap is surfaced: catching up the most recent missed
// session is the common case, and offering a whole backlog would drown the
// user.
//
// Returns false for non-recurring series and when asOf is not after the
// anchor.
func MostRecentMissed(s *Series, existing map[string]bool, asOf time.Time) (time.Time, bool) {
	if !s.Recurring() {
		return time.Time{}, false
	}

	asOfKey := DateKey(asOf)
	if DateKey(s.Anchor) >= asOfKey {
		return time.Time{}, false
	}

	var (
		missed time.Time
		found  bool
	)
	for n := 0; n < maxOccurrenceSteps; n++ {
		if s.Count > 0 && n >= s.Count {
			break
		}
		d := occurrenceAt(s, n)
		if pastEnd(s, d) {
			break
		}
		k := DateKey(d)
		if k >= asOfKey {
			break
		}
		if s.IsCancelled(d) || existing[k] {
			continue
		}
		missed, found = d, true
	}
	return missed, found
}
