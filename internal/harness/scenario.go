package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jayp120/syncly/internal/series"
)

// Scenario defines a lifecycle conformance scenario.
// Scenarios drive the session controller through a sequence of steps
// against an in-memory store and assert on the resulting phase trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Used as the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Series is the meeting series the scenario runs against.
	Series SeriesDef `yaml:"series"`

	// Clock is the RFC 3339 time the deterministic clock starts at.
	Clock string `yaml:"clock"`

	// Actor is attributed on created tasks. Defaults to "harness".
	Actor string `yaml:"actor,omitempty"`

	// Mentions is the user directory available to the note parser.
	Mentions []MentionDef `yaml:"mentions,omitempty"`

	// RequiresAuth makes finalize suspend until auth_completed.
	RequiresAuth bool `yaml:"requires_auth,omitempty"`

	// Existing seeds finalized instances before the steps run.
	Existing []SeedInstance `yaml:"existing,omitempty"`

	// Steps is the main flow. Each step can carry an expect clause.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and store state.
	Assertions []Assertion `yaml:"assertions"`
}

// SeriesDef describes the meeting series under test.
type SeriesDef struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Anchor    string   `yaml:"anchor"`
	Rule      string   `yaml:"rule,omitempty"`
	End       string   `yaml:"end,omitempty"`
	Count     int      `yaml:"count,omitempty"`
	Cancelled []string `yaml:"cancelled,omitempty"`
	Attendees []string `yaml:"attendees,omitempty"`
	Agenda    string   `yaml:"agenda,omitempty"`
}

// MentionDef is one entry of the mention directory.
type MentionDef struct {
	Display string `yaml:"display"`
	ID      string `yaml:"id"`
}

// SeedInstance pre-populates the store with an already-finalized occurrence.
type SeedInstance struct {
	Date  string     `yaml:"date"`
	Notes string     `yaml:"notes,omitempty"`
	Tasks []SeedTask `yaml:"tasks,omitempty"`
}

// SeedTask is a task attached to a seeded instance.
type SeedTask struct {
	Title     string   `yaml:"title"`
	Assignees []string `yaml:"assignees,omitempty"`
	Due       string   `yaml:"due,omitempty"`
	Priority  string   `yaml:"priority,omitempty"`
	Done      bool     `yaml:"done,omitempty"`
}

// Step is one controller transition in the flow.
type Step struct {
	// Do names the transition to run.
	// One of: start_live, start_catchup, edit_notes, finalize,
	// auth_completed, cancel, reset, advance_clock.
	Do string `yaml:"do"`

	// Date is the occurrence date key for start_live / start_catchup.
	Date string `yaml:"date,omitempty"`

	// Notes is the buffer content for edit_notes.
	Notes string `yaml:"notes,omitempty"`

	// By is a Go duration string for advance_clock.
	By string `yaml:"by,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step is assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected phase and error after a step.
type ExpectClause struct {
	// Phase is the expected session phase after the step.
	Phase string `yaml:"phase"`

	// ErrorCode is the expected error code, empty for success.
	ErrorCode string `yaml:"error_code,omitempty"`
}

// Assertion validates the final trace or store state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_phase": the session ends in the given phase
	// - "phase_order": the given phases appear in the trace in order
	// - "instance_count": the store holds exactly N instances for the series
	// - "task_count": the finalized instance for Date references N tasks
	Type string `yaml:"type"`

	// Phase is the expected phase (used by final_phase).
	Phase string `yaml:"phase,omitempty"`

	// Phases is the expected phase order (used by phase_order).
	Phases []string `yaml:"phases,omitempty"`

	// Date selects an instance by occurrence date (used by task_count).
	Date string `yaml:"date,omitempty"`

	// Count is the expected count (used by instance_count, task_count).
	Count int `yaml:"count"`
}

// Step and assertion type constants.
const (
	StepStartLive    = "start_live"
	StepStartCatchUp = "start_catchup"
	StepEditNotes    = "edit_notes"
	StepFinalize     = "finalize"
	StepAuthDone     = "auth_completed"
	StepCancel       = "cancel"
	StepReset        = "reset"
	StepAdvanceClock = "advance_clock"

	AssertFinalPhase    = "final_phase"
	AssertPhaseOrder    = "phase_order"
	AssertInstanceCount = "instance_count"
	AssertTaskCount     = "task_count"
)

var knownSteps = map[string]bool{
	StepStartLive:    true,
	StepStartCatchUp: true,
	StepEditNotes:    true,
	StepFinalize:     true,
	StepAuthDone:     true,
	StepCancel:       true,
	StepReset:        true,
	StepAdvanceClock: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Series.ID == "" {
		return fmt.Errorf("series.id is required")
	}
	if s.Series.Anchor == "" {
		return fmt.Errorf("series.anchor is required")
	}
	if _, err := time.Parse(time.RFC3339, s.Series.Anchor); err != nil {
		return fmt.Errorf("series.anchor: %w", err)
	}
	if s.Series.Rule != "" && !series.ValidRules[series.Rule(s.Series.Rule)] {
		return fmt.Errorf("series.rule: unknown rule %q", s.Series.Rule)
	}

	if s.Clock == "" {
		return fmt.Errorf("clock is required")
	}
	if _, err := time.Parse(time.RFC3339, s.Clock); err != nil {
		return fmt.Errorf("clock: %w", err)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, seed := range s.Existing {
		if seed.Date == "" {
			return fmt.Errorf("existing[%d]: date is required", i)
		}
		if _, err := series.ParseDateKey(seed.Date); err != nil {
			return fmt.Errorf("existing[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if step.Do == "" {
			return fmt.Errorf("steps[%d]: do is required", i)
		}
		if !knownSteps[step.Do] {
			return fmt.Errorf("steps[%d]: unknown step %q", i, step.Do)
		}
		switch step.Do {
		case StepStartLive, StepStartCatchUp:
			if step.Date == "" {
				return fmt.Errorf("steps[%d]: date is required for %s", i, step.Do)
			}
			if _, err := series.ParseDateKey(step.Date); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		case StepAdvanceClock:
			if step.By == "" {
				return fmt.Errorf("steps[%d]: by is required for advance_clock", i)
			}
			if _, err := time.ParseDuration(step.By); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if step.Expect != nil && step.Expect.Phase == "" {
			return fmt.Errorf("steps[%d].expect: phase is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalPhase:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for final_phase", index)
		}
	case AssertPhaseOrder:
		if len(a.Phases) == 0 {
			return fmt.Errorf("assertions[%d]: phases list is required for phase_order", index)
		}
	case AssertInstanceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for instance_count", index)
		}
	case AssertTaskCount:
		if a.Date == "" {
			return fmt.Errorf("assertions[%d]: date is required for task_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
