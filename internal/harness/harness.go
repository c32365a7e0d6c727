// Package harness provides a conformance harness for the session
// lifecycle. Scenarios are YAML files that drive the controller through
// start/edit/finalize steps against a fresh in-memory store; the
// resulting phase trace is validated with expect clauses, assertions,
// and golden files.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jayp120/syncly/internal/calsync"
	"github.com/jayp120/syncly/internal/notes"
	"github.com/jayp120/syncly/internal/series"
	"github.com/jayp120/syncly/internal/session"
	"github.com/jayp120/syncly/internal/store"
	"github.com/jayp120/syncly/internal/testutil"
)

// harness holds the collaborators for one scenario run.
type harness struct {
	store      *store.Store
	controller *session.Controller
	clock      *testutil.FixedClock
	def        *series.Series
}

// scenarioGate satisfies session.AuthGate from the scenario flag.
type scenarioGate struct {
	pending bool
}

func (g *scenarioGate) RequiresAuthorization(context.Context) bool { return g.pending }

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database with a
// deterministic clock and sequential ids, so repeated runs produce
// identical traces.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequenceIDs("id")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start, err := time.Parse(time.RFC3339, scenario.Clock)
	if err != nil {
		return nil, fmt.Errorf("invalid clock: %w", err)
	}
	clock := testutil.NewFixedClock(start)

	def, err := buildSeries(&scenario.Series)
	if err != nil {
		return nil, err
	}

	actor := scenario.Actor
	if actor == "" {
		actor = "harness"
	}

	mentions := make([]notes.Mention, len(scenario.Mentions))
	for i, m := range scenario.Mentions {
		mentions[i] = notes.Mention{Display: m.Display, ID: m.ID}
	}

	gate := &scenarioGate{pending: scenario.RequiresAuth}
	finalizer := session.NewFinalizer(st, st, calsync.NopSync{}, clock)
	controller := session.NewController(finalizer, st, st, clock, gate, mentions, actor)

	h := &harness{store: st, controller: controller, clock: clock, def: def}

	ctx := context.Background()
	result := NewResult()

	if err := h.seedExisting(ctx, scenario.Existing); err != nil {
		return nil, fmt.Errorf("failed to seed existing instances: %w", err)
	}

	if err := h.executeSteps(ctx, scenario.Steps, gate, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	for _, msg := range EvaluateAssertions(ctx, result, scenario.Assertions, st, def.ID) {
		result.AddError(msg)
	}

	return result, nil
}

// buildSeries converts the scenario definition into the model.
func buildSeries(d *SeriesDef) (*series.Series, error) {
	anchor, err := time.Parse(time.RFC3339, d.Anchor)
	if err != nil {
		return nil, fmt.Errorf("invalid series anchor: %w", err)
	}

	s := &series.Series{
		ID:          d.ID,
		Title:       d.Title,
		Anchor:      anchor,
		Rule:        series.RuleNone,
		Count:       d.Count,
		AttendeeIDs: d.Attendees,
		Agenda:      d.Agenda,
	}
	if d.Rule != "" {
		s.Rule = series.Rule(d.Rule)
	}
	if d.End != "" {
		end, err := series.ParseDateKey(d.End)
		if err != nil {
			return nil, fmt.Errorf("invalid series end: %w", err)
		}
		s.End = end
	}
	if len(d.Cancelled) > 0 {
		s.Cancelled = make(map[string]bool, len(d.Cancelled))
		for _, k := range d.Cancelled {
			s.Cancelled[k] = true
		}
	}
	return s, nil
}

// seedExisting writes pre-finalized instances and their tasks to the store.
func (h *harness) seedExisting(ctx context.Context, seeds []SeedInstance) error {
	for i, seed := range seeds {
		var taskIDs []string
		for j, t := range seed.Tasks {
			priority := notes.PriorityMedium
			if t.Priority != "" {
				priority = notes.Priority(t.Priority)
			}
			id, err := h.store.CreateTask(ctx, session.Task{
				Title:       t.Title,
				AssigneeIDs: t.Assignees,
				DueDate:     t.Due,
				Priority:    priority,
				CreatedBy:   "seed",
				CreatedAt:   h.clock.Now(),
			})
			if err != nil {
				return fmt.Errorf("existing[%d].tasks[%d]: %w", i, j, err)
			}
			if t.Done {
				if err := h.store.SetTaskDone(ctx, id, true); err != nil {
					return fmt.Errorf("existing[%d].tasks[%d]: %w", i, j, err)
				}
			}
			taskIDs = append(taskIDs, id)
		}

		_, err := h.store.CreateInstance(ctx, session.Instance{
			SeriesID:       h.def.ID,
			OccurrenceDate: seed.Date,
			NotesText:      seed.Notes,
			TaskIDs:        taskIDs,
			FinalizedAt:    h.clock.Now(),
		})
		if err != nil {
			return fmt.Errorf("existing[%d]: %w", i, err)
		}
	}
	return nil
}

// executeSteps runs the flow and validates expect clauses as it goes.
// Transition errors do not abort the run: the controller leaves the state
// usable after a rejected transition, and scenarios assert on the codes.
func (h *harness) executeSteps(ctx context.Context, steps []Step, gate *scenarioGate, result *Result) error {
	state := session.NewState()

	for i, step := range steps {
		var stepErr error

		switch step.Do {
		case StepStartLive:
			state, stepErr = h.controller.StartLiveSession(ctx, state, h.def, step.Date)
		case StepStartCatchUp:
			state, stepErr = h.controller.StartCatchUp(ctx, state, h.def, step.Date)
		case StepEditNotes:
			state = h.controller.UpdateNotes(state, step.Notes)
		case StepFinalize:
			state, stepErr = h.controller.RequestFinalize(ctx, state)
		case StepAuthDone:
			gate.pending = false
			state, stepErr = h.controller.AuthorizationCompleted(ctx, state)
		case StepCancel:
			state = h.controller.Cancel(state)
		case StepReset:
			state = h.controller.Reset(state)
		case StepAdvanceClock:
			d, err := time.ParseDuration(step.By)
			if err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
			h.clock.Advance(d)
		default:
			return fmt.Errorf("steps[%d]: unknown step %q", i, step.Do)
		}

		ev := TraceEvent{
			Step:      step.Do,
			Phase:     string(state.Phase),
			ErrorCode: errorCode(stepErr),
			TaskCount: len(state.Preview),
		}
		result.AddTrace(ev)

		if step.Expect != nil {
			if ev.Phase != step.Expect.Phase {
				result.AddError(fmt.Sprintf(
					"steps[%d] (%s): expected phase %s, got %s",
					i, step.Do, step.Expect.Phase, ev.Phase))
			}
			if ev.ErrorCode != step.Expect.ErrorCode {
				result.AddError(fmt.Sprintf(
					"steps[%d] (%s): expected error code %q, got %q",
					i, step.Do, step.Expect.ErrorCode, ev.ErrorCode))
			}
		}
	}

	return nil
}

// errorCode extracts the stable code from a transition error.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var se *session.SessionError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "UNKNOWN"
}
