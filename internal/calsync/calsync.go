// Package calsync implements the calendar-sync collaborator by exporting
// finalized instances as iCalendar events.
//
// Sync is best effort by contract: the finalizer treats any error from here
// as a warning, never as a failed finalize.
package calsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/jayp120/syncly/internal/series"
	"github.com/jayp120/syncly/internal/session"
)

// SeriesLookup resolves a series id to its definition so the exported event
// can carry the recurrence rule. Returning false yields a plain single
// event.
type SeriesLookup func(id string) (*series.Series, bool)

// FileSync writes one .ics file per finalized instance into a directory.
type FileSync struct {
	dir    string
	lookup SeriesLookup
}

// NewFileSync creates a FileSync. lookup may be nil.
func NewFileSync(dir string, lookup SeriesLookup) *FileSync {
	return &FileSync{dir: dir, lookup: lookup}
}

// TrySync renders the instance as a VEVENT and writes it to
// <dir>/<seriesID>-<date>.ics.
func (s *FileSync) TrySync(_ context.Context, inst session.Instance) error {
	var def *series.Series
	if s.lookup != nil {
		if found, ok := s.lookup(inst.SeriesID); ok {
			def = found
		}
	}

	data, err := renderICS(inst, def)
	if err != nil {
		return fmt.Errorf("calendar sync: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("calendar sync: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.ics", inst.SeriesID, inst.OccurrenceDate))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("calendar sync: %w", err)
	}
	return nil
}

// renderICS builds the iCalendar document for an instance. When the series
// definition is available, the event carries the recurrence rule and the
// cancelled dates as EXDATEs so calendar clients show the whole cadence.
func renderICS(inst session.Instance, def *series.Series) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)

	event := cal.AddEvent(fmt.Sprintf("%s-%s@syncly", inst.SeriesID, inst.OccurrenceDate))
	event.SetDtStampTime(inst.FinalizedAt)
	event.SetDescription(inst.NotesText)

	start, err := eventStart(inst, def)
	if err != nil {
		return "", err
	}
	event.SetStartAt(start)
	event.SetEndAt(start.Add(time.Hour))

	if def == nil {
		event.SetSummary(fmt.Sprintf("Meeting %s", inst.OccurrenceDate))
		return cal.Serialize(), nil
	}

	event.SetSummary(def.Title)

	if def.Recurring() {
		ruleStr, err := recurrenceRule(def)
		if err != nil {
			return "", err
		}
		event.AddProperty(ical.ComponentPropertyRrule, ruleStr)
		for key := range def.Cancelled {
			d, err := series.ParseDateKey(key)
			if err != nil {
				continue
			}
			event.AddProperty(ical.ComponentPropertyExdate,
				d.Format("20060102T150405Z"))
		}
	}

	return cal.Serialize(), nil
}

// eventStart places the event at the series' scheduled time-of-day on the
// occurrence date; without a definition it falls back to midnight UTC.
func eventStart(inst session.Instance, def *series.Series) (time.Time, error) {
	day, err := series.ParseDateKey(inst.OccurrenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse occurrence date %q: %w", inst.OccurrenceDate, err)
	}
	if def == nil {
		return day, nil
	}
	a := def.Anchor
	return time.Date(day.Year(), day.Month(), day.Day(),
		a.Hour(), a.Minute(), a.Second(), 0, a.Location()), nil
}

// recurrenceRule serializes the series rule as an RFC 5545 RRULE value.
func recurrenceRule(def *series.Series) (string, error) {
	opt := rrule.ROption{Dtstart: def.Anchor}

	switch def.Rule {
	case series.RuleDaily:
		opt.Freq = rrule.DAILY
	case series.RuleWeekly:
		opt.Freq = rrule.WEEKLY
	case series.RuleMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("rule %q has no RRULE form", def.Rule)
	}

	if !def.End.IsZero() {
		opt.Until = def.End
	}
	if def.Count > 0 {
		opt.Count = def.Count
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return r.String(), nil
}

// NopSync is the CalendarSync for installations without calendar export.
type NopSync struct{}

func (NopSync) TrySync(context.Context, session.Instance) error { return nil }
