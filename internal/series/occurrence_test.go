package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestNextOccurrence_RuleNone_FutureAnchor(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleNone, Anchor: date(2025, 6, 10)}

	got, ok := NextOccurrence(s, date(2025, 6, 1))
	require.True(t, ok)
	assert.Equal(t, date(2025, 6, 10), got)
}

func TestNextOccurrence_RuleNone_PastAnchor(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleNone, Anchor: date(2025, 6, 10)}

	_, ok := NextOccurrence(s, date(2025, 6, 10))
	assert.False(t, ok, "anchor must be strictly in the future")

	_, ok = NextOccurrence(s, date(2025, 7, 1))
	assert.False(t, ok)
}

func TestNextOccurrence_RuleNone_CancelledAnchor(t *testing.T) {
	s := &Series{
		ID:        "s1",
		Rule:      RuleNone,
		Anchor:    date(2025, 6, 10),
		Cancelled: map[string]bool{"2025-06-10": true},
	}

	_, ok := NextOccurrence(s, date(2025, 6, 1))
	assert.False(t, ok, "a cancelled one-off has no next occurrence")
}

func TestNextOccurrence_Weekly_StepsForward(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleWeekly, Anchor: date(2025, 6, 2)} // Monday

	got, ok := NextOccurrence(s, date(2025, 6, 11)) // Wednesday
	require.True(t, ok)
	assert.Equal(t, date(2025, 6, 16), got, "should land on the next Monday")
}

func TestNextOccurrence_SameDayCounts(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleDaily, Anchor: date(2025, 6, 2)}

	// asOf later in the day than the occurrence time - still today's occurrence.
	asOf := time.Date(2025, 6, 5, 23, 0, 0, 0, time.UTC)
	got, ok := NextOccurrence(s, asOf)
	require.True(t, ok)
	assert.Equal(t, "2025-06-05", DateKey(got))
}

func TestNextOccurrence_SkipsCancelled(t *testing.T) {
	s := &Series{
		ID:        "s1",
		Rule:      RuleWeekly,
		Anchor:    date(2025, 6, 2),
		Cancelled: map[string]bool{"2025-06-16": true},
	}

	got, ok := NextOccurrence(s, date(2025, 6, 11))
	require.True(t, ok)
	assert.Equal(t, date(2025, 6, 23), got, "cancelled occurrence is skipped")
}

func TestNextOccurrence_EndDateExceeded(t *testing.T) {
	s := &Series{
		ID:     "s1",
		Rule:   RuleWeekly,
		Anchor: date(2025, 6, 2),
		End:    date(2025, 6, 20),
	}

	_, ok := NextOccurrence(s, date(2025, 6, 21))
	assert.False(t, ok, "no occurrences after the end date")

	got, ok := NextOccurrence(s, date(2025, 6, 14))
	require.True(t, ok)
	assert.Equal(t, date(2025, 6, 16), got, "last occurrence before end is reachable")
}

func TestNextOccurrence_CountExhausted(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleDaily, Anchor: date(2025, 6, 1), Count: 3}

	// Occurrences: Jun 1, 2, 3. Nothing on or after Jun 4.
	_, ok := NextOccurrence(s, date(2025, 6, 4))
	assert.False(t, ok)

	got, ok := NextOccurrence(s, date(2025, 6, 3))
	require.True(t, ok)
	assert.Equal(t, date(2025, 6, 3), got)
}

func TestNextOccurrence_CancelledConsumesCount(t *testing.T) {
	s := &Series{
		ID:        "s1",
		Rule:      RuleDaily,
		Anchor:    date(2025, 6, 1),
		Count:     2,
		Cancelled: map[string]bool{"2025-06-02": true},
	}

	// Second (and last) occurrence is cancelled; there is no third.
	_, ok := NextOccurrence(s, date(2025, 6, 2))
	assert.False(t, ok, "cancelled occurrences still consume the count")
}

func TestNextOccurrence_AllCancelledTerminates(t *testing.T) {
	cancelled := make(map[string]bool)
	anchor := date(2025, 1, 1)
	for i := 0; i < maxOccurrenceSteps+10; i++ {
		cancelled[DateKey(anchor.AddDate(0, 0, i))] = true
	}
	s := &Series{ID: "s1", Rule: RuleDaily, Anchor: anchor, Cancelled: cancelled}

	_, ok := NextOccurrence(s, anchor)
	assert.False(t, ok, "stepping loop must be bounded")
}

func TestOccurrencesInRange_WeeklySpacing(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleWeekly, Anchor: date(2025, 6, 2)}

	got := OccurrencesInRange(s, date(2025, 6, 1), date(2025, 7, 15))
	require.NotEmpty(t, got)

	for i, d := range got {
		assert.False(t, d.Before(s.Anchor), "occurrence %d before anchor", i)
		if i > 0 {
			assert.Equal(t, 7*24*time.Hour, d.Sub(got[i-1]),
				"occurrences must be exactly 7 days apart")
		}
	}
}

func TestOccurrencesInRange_SkipsDatesBeforeStart(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleDaily, Anchor: date(2025, 6, 1)}

	got := OccurrencesInRange(s, date(2025, 6, 10), date(2025, 6, 12))
	require.Len(t, got, 3)
	assert.Equal(t, "2025-06-10", DateKey(got[0]))
	assert.Equal(t, "2025-06-12", DateKey(got[2]))
}

func TestOccurrencesInRange_StopsAtBounds(t *testing.T) {
	s := &Series{
		ID:     "s1",
		Rule:   RuleDaily,
		Anchor: date(2025, 6, 1),
		End:    date(2025, 6, 5),
		Count:  10,
	}

	got := OccurrencesInRange(s, date(2025, 6, 1), date(2025, 6, 30))
	assert.Len(t, got, 5, "end date wins over count and range end")

	s.End = time.Time{}
	s.Count = 3
	got = OccurrencesInRange(s, date(2025, 6, 1), date(2025, 6, 30))
	assert.Len(t, got, 3, "count bounds the expansion")
}

func TestOccurrencesInRange_OmitsCancelled(t *testing.T) {
	s := &Series{
		ID:        "s1",
		Rule:      RuleDaily,
		Anchor:    date(2025, 6, 1),
		Cancelled: map[string]bool{"2025-06-02": true},
	}

	got := OccurrencesInRange(s, date(2025, 6, 1), date(2025, 6, 3))
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-01", DateKey(got[0]))
	assert.Equal(t, "2025-06-03", DateKey(got[1]))
}

func TestOccurrencesInRange_RuleNone(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleNone, Anchor: date(2025, 6, 10)}

	assert.Len(t, OccurrencesInRange(s, date(2025, 6, 1), date(2025, 6, 30)), 1)
	assert.Empty(t, OccurrencesInRange(s, date(2025, 7, 1), date(2025, 7, 30)))
}

func TestOccurrencesInRange_InvertedRange(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleDaily, Anchor: date(2025, 6, 1)}
	assert.Nil(t, OccurrencesInRange(s, date(2025, 6, 10), date(2025, 6, 1)))
}

func TestMonthly_ClampsShortMonths(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleMonthly, Anchor: date(2025, 1, 31)}

	got := OccurrencesInRange(s, date(2025, 1, 1), date(2025, 5, 31))
	require.Len(t, got, 5)
	assert.Equal(t, "2025-01-31", DateKey(got[0]))
	assert.Equal(t, "2025-02-28", DateKey(got[1]), "February clamps to its last day")
	assert.Equal(t, "2025-03-31", DateKey(got[2]), "day-of-month restored, no drift")
	assert.Equal(t, "2025-04-30", DateKey(got[3]))
	assert.Equal(t, "2025-05-31", DateKey(got[4]))
}

func TestMonthly_LeapFebruary(t *testing.T) {
	s := &Series{ID: "s1", Rule: RuleMonthly, Anchor: date(2024, 1, 30)}

	got := OccurrencesInRange(s, date(2024, 2, 1), date(2024, 2, 29))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-02-29", DateKey(got[0]))
}

func TestDateKey_RoundTrip(t *testing.T) {
	k := DateKey(date(2025, 6, 2))
	assert.Equal(t, "2025-06-02", k)

	parsed, err := ParseDateKey(k)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", DateKey(parsed))
}
