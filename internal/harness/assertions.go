package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/jayp120/syncly/internal/store"
)

// EvaluateAssertions checks every assertion against the trace and the
// final store state. Returns one message per failed assertion; an empty
// slice means all assertions held.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st *store.Store, seriesID string) []string {
	var failures []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalPhase:
			err = assertFinalPhase(result, a.Phase)
		case AssertPhaseOrder:
			err = assertPhaseOrder(result, a.Phases)
		case AssertInstanceCount:
			err = assertInstanceCount(ctx, st, seriesID, a.Count)
		case AssertTaskCount:
			err = assertTaskCount(ctx, st, seriesID, a.Date, a.Count)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}

	return failures
}

// assertFinalPhase checks the phase after the last step.
func assertFinalPhase(result *Result, want string) error {
	if len(result.Trace) == 0 {
		return fmt.Errorf("trace is empty")
	}
	got := result.Trace[len(result.Trace)-1].Phase
	if got != want {
		return fmt.Errorf("expected final phase %s, got %s", want, got)
	}
	return nil
}

// assertPhaseOrder checks that the given phases appear in the trace in
// order. Other phases may appear between them; this is a subsequence
// match, not an exact one.
func assertPhaseOrder(result *Result, want []string) error {
	next := 0
	for _, ev := range result.Trace {
		if next < len(want) && ev.Phase == want[next] {
			next++
		}
	}
	if next < len(want) {
		return fmt.Errorf("phase %s not found in order (trace: %s)",
			want[next], tracePhases(result))
	}
	return nil
}

// assertInstanceCount checks the number of persisted instances.
func assertInstanceCount(ctx context.Context, st *store.Store, seriesID string, want int) error {
	insts, err := st.ListBySeries(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("listing instances: %w", err)
	}
	if len(insts) != want {
		return fmt.Errorf("expected %d instances, got %d", want, len(insts))
	}
	return nil
}

// assertTaskCount checks how many tasks the instance for date references.
func assertTaskCount(ctx context.Context, st *store.Store, seriesID, date string, want int) error {
	insts, err := st.ListBySeries(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("listing instances: %w", err)
	}
	for _, inst := range insts {
		if inst.OccurrenceDate == date {
			if len(inst.TaskIDs) != want {
				return fmt.Errorf("expected %d tasks on %s, got %d", want, date, len(inst.TaskIDs))
			}
			return nil
		}
	}
	return fmt.Errorf("no instance found for %s", date)
}

func tracePhases(result *Result) string {
	phases := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		phases[i] = ev.Phase
	}
	return strings.Join(phases, " -> ")
}
