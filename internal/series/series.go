package series

import "time"

// Rule identifies how a series repeats.
type Rule string

const (
	// RuleNone means the series has exactly one occurrence: the anchor.
	RuleNone Rule = "none"

	// RuleDaily repeats every calendar day.
	RuleDaily Rule = "daily"

	// RuleWeekly repeats every 7 days.
	RuleWeekly Rule = "weekly"

	// RuleMonthly repeats every calendar month, clamping the day-of-month
	// to the target month's length (see package doc).
	RuleMonthly Rule = "monthly"
)

// ValidRules defines the allowed recurrence rules.
var ValidRules = map[Rule]bool{
	RuleNone:    true,
	RuleDaily:   true,
	RuleWeekly:  true,
	RuleMonthly: true,
}

// Series is a recurring meeting definition.
//
// INVARIANT: Rule == RuleNone implies End and Count have no effect beyond
// the single anchor occurrence. seriesfile validation rejects definitions
// that set them anyway.
type Series struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Anchor is the start of the series. Its time-of-day is carried onto
	// every computed occurrence.
	Anchor time.Time `json:"anchor"`

	Rule Rule `json:"rule"`

	// End bounds the series by date. Zero value means unbounded.
	End time.Time `json:"end,omitempty"`

	// Count bounds the series by number of occurrences. Cancelled dates
	// still consume count: they are occurrences that were called off, not
	// holes in the schedule. Zero means unbounded.
	Count int `json:"count,omitempty"`

	// Cancelled holds date keys of occurrences that were called off.
	Cancelled map[string]bool `json:"cancelled,omitempty"`

	// AttendeeIDs lists attendees in invitation order.
	AttendeeIDs []string `json:"attendee_ids,omitempty"`

	// Agenda is the notes template a live session starts from.
	Agenda string `json:"agenda,omitempty"`
}

// Recurring reports whether the series has more than the anchor occurrence.
func (s *Series) Recurring() bool {
	return s.Rule != RuleNone && s.Rule != ""
}

// IsCancelled reports whether the occurrence on t's calendar day was
// called off.
func (s *Series) IsCancelled(t time.Time) bool {
	return s.Cancelled[DateKey(t)]
}

// DateKey formats t as a date-only key (YYYY-MM-DD) in t's location.
// Date keys are the comparison and storage unit for occurrences.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDateKey parses a YYYY-MM-DD key into a UTC midnight timestamp.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}
