// Package seriesfile loads meeting series definitions from CUE files.
//
// A definitions directory holds one or more .cue files declaring series
// under the top-level "series" struct:
//
//	series: standup: {
//		title:  "Daily standup"
//		anchor: "2025-06-02T10:00:00Z"
//		rule:   "daily"
//		attendees: ["u1", "u2"]
//	}
//
// The struct label becomes the series id. Loading validates the definition
// against the model's invariants; errors carry CUE positions where
// available.
package seriesfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/jayp120/syncly/internal/series"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the series loaded from a directory.
type LoadResult struct {
	Series    []series.Series
	FileCount int
}

// LoadError represents an error that occurred during definition loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants.
const (
	ErrCodeGeneric     = "S001" // Generic/unknown error
	ErrCodeNoFiles     = "S002" // No CUE files found
	ErrCodeLoadFailed  = "S003" // CUE load failed
	ErrCodeNotFound    = "S004" // Path not found
	ErrCodeBuildFailed = "S005" // CUE build failed

	ErrCodeMissingField  = "S101" // Required field absent
	ErrCodeInvalidField  = "S102" // Field present but unusable
	ErrCodeInvalidRule   = "S103" // Unknown recurrence rule
	ErrCodeBoundConflict = "S104" // Bounds set on a non-recurring series
)

// Load reads every series definition under dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func Load(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definitions directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definitions directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}

	seriesVal := value.LookupPath(cue.ParsePath("series"))
	if !seriesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no series found in definitions"}}
	}

	iter, iterErr := seriesVal.Fields()
	if iterErr != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating series: %v", iterErr)}}
	}
	for iter.Next() {
		s, decodeErrs := decodeSeries(iter.Label(), iter.Value())
		if len(decodeErrs) > 0 {
			errs = append(errs, decodeErrs...)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Series = append(result.Series, *s)
	}

	if len(result.Series) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no series found in definitions"})
	}

	return result, errs
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// decodeSeries converts one CUE series struct into the model, validating as
// it goes. The label is the series id unless the definition overrides it.
func decodeSeries(label string, v cue.Value) (*series.Series, []error) {
	var errs []error
	fail := func(code, msg string, at cue.Value) {
		errs = append(errs, &LoadError{Code: code, Message: msg, Pos: at.Pos()})
	}

	s := &series.Series{ID: label, Rule: series.RuleNone}

	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("id: %v", err), idVal)
		} else {
			s.ID = id
		}
	}

	titleVal := v.LookupPath(cue.ParsePath("title"))
	if !titleVal.Exists() {
		fail(ErrCodeMissingField, "title is required", v)
	} else if title, err := titleVal.String(); err != nil {
		fail(ErrCodeInvalidField, fmt.Sprintf("title: %v", err), titleVal)
	} else {
		s.Title = title
	}

	anchorVal := v.LookupPath(cue.ParsePath("anchor"))
	if !anchorVal.Exists() {
		fail(ErrCodeMissingField, "anchor is required", v)
	} else if anchor, err := timeField(anchorVal); err != nil {
		fail(ErrCodeInvalidField, fmt.Sprintf("anchor: %v", err), anchorVal)
	} else {
		s.Anchor = anchor
	}

	if ruleVal := v.LookupPath(cue.ParsePath("rule")); ruleVal.Exists() {
		rule, err := ruleVal.String()
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("rule: %v", err), ruleVal)
		} else if !series.ValidRules[series.Rule(rule)] {
			fail(ErrCodeInvalidRule, fmt.Sprintf("unknown rule %q", rule), ruleVal)
		} else {
			s.Rule = series.Rule(rule)
		}
	}

	if endVal := v.LookupPath(cue.ParsePath("end")); endVal.Exists() {
		end, err := timeField(endVal)
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("end: %v", err), endVal)
		} else {
			s.End = end
		}
	}

	if countVal := v.LookupPath(cue.ParsePath("count")); countVal.Exists() {
		count, err := countVal.Int64()
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("count: %v", err), countVal)
		} else if count < 0 {
			fail(ErrCodeInvalidField, "count must not be negative", countVal)
		} else {
			s.Count = int(count)
		}
	}

	if cancelledVal := v.LookupPath(cue.ParsePath("cancelled")); cancelledVal.Exists() {
		keys, err := stringList(cancelledVal)
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("cancelled: %v", err), cancelledVal)
		} else {
			s.Cancelled = make(map[string]bool, len(keys))
			for _, k := range keys {
				if _, err := series.ParseDateKey(k); err != nil {
					fail(ErrCodeInvalidField, fmt.Sprintf("cancelled: %q is not a date key", k), cancelledVal)
					continue
				}
				s.Cancelled[k] = true
			}
		}
	}

	if attendeesVal := v.LookupPath(cue.ParsePath("attendees")); attendeesVal.Exists() {
		ids, err := stringList(attendeesVal)
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("attendees: %v", err), attendeesVal)
		} else {
			s.AttendeeIDs = ids
		}
	}

	if agendaVal := v.LookupPath(cue.ParsePath("agenda")); agendaVal.Exists() {
		agenda, err := agendaVal.String()
		if err != nil {
			fail(ErrCodeInvalidField, fmt.Sprintf("agenda: %v", err), agendaVal)
		} else {
			s.Agenda = agenda
		}
	}

	// A single-occurrence series has no bounds to speak of.
	if !s.Recurring() && (s.Count > 0 || !s.End.IsZero()) {
		fail(ErrCodeBoundConflict, "end/count require a recurring rule", v)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

// timeField accepts RFC 3339 timestamps and bare date keys.
func timeField(v cue.Value) (time.Time, error) {
	str, err := v.String()
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t, nil
	}
	if t, err := series.ParseDateKey(str); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", str)
}

// stringList decodes a CUE list of strings.
func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
