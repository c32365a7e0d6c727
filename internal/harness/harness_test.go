package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return scenario
}

func TestRunLiveFinalizeScenario(t *testing.T) {
	scenario := loadTestScenario(t, "live_finalize.yaml")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunDuplicateRetryScenario(t *testing.T) {
	scenario := loadTestScenario(t, "duplicate_retry.yaml")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunAuthSuspendResumeScenario(t *testing.T) {
	scenario := loadTestScenario(t, "auth_suspend_resume.yaml")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunRecordsTransitionRejection(t *testing.T) {
	scenario := &Scenario{
		Name:        "finalize_from_idle",
		Description: "finalize without an active session is rejected",
		Series: SeriesDef{
			ID:     "s1",
			Title:  "One-off",
			Anchor: "2025-06-02T10:00:00Z",
		},
		Clock: "2025-06-02T10:00:00Z",
		Steps: []Step{
			{Do: StepFinalize},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "IDLE", result.Trace[0].Phase)
	assert.Equal(t, "INVALID_TRANSITION", result.Trace[0].ErrorCode)
}

func TestRunExpectMismatchFailsResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expect",
		Description: "an expect clause that does not match marks the run failed",
		Series: SeriesDef{
			ID:     "s1",
			Title:  "One-off",
			Anchor: "2025-06-02T10:00:00Z",
		},
		Clock: "2025-06-02T10:00:00Z",
		Steps: []Step{
			{Do: StepStartLive, Date: "2025-06-02", Expect: &ExpectClause{Phase: "FINALIZED"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected phase FINALIZED")
}

func TestRunFailedAssertionFailsResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_assertion",
		Description: "a failed store assertion marks the run failed",
		Series: SeriesDef{
			ID:     "s1",
			Title:  "One-off",
			Anchor: "2025-06-02T10:00:00Z",
		},
		Clock: "2025-06-02T10:00:00Z",
		Steps: []Step{
			{Do: StepStartLive, Date: "2025-06-02"},
			{Do: StepCancel},
		},
		Assertions: []Assertion{
			{Type: AssertInstanceCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected 1 instances, got 0")
}

func TestRunSeedsOpenTasksIntoRecall(t *testing.T) {
	// The seeded instance precedes the step's date, so starting a live
	// session loads it without error and finalize creates a second one.
	scenario := &Scenario{
		Name:        "seeded_recall",
		Description: "a prior instance and its open tasks are available at start",
		Series: SeriesDef{
			ID:     "team-sync",
			Title:  "Team Sync",
			Anchor: "2025-06-02T10:00:00Z",
			Rule:   "weekly",
		},
		Clock: "2025-06-09T10:00:00Z",
		Existing: []SeedInstance{
			{
				Date:  "2025-06-02",
				Notes: "Prior notes",
				Tasks: []SeedTask{
					{Title: "Open item", Assignees: []string{"u1"}},
					{Title: "Closed item", Done: true},
				},
			},
		},
		Steps: []Step{
			{Do: StepStartLive, Date: "2025-06-09", Expect: &ExpectClause{Phase: "LIVE_SESSION_ACTIVE"}},
			{Do: StepFinalize, Expect: &ExpectClause{Phase: "FINALIZED"}},
		},
		Assertions: []Assertion{
			{Type: AssertInstanceCount, Count: 2},
			{Type: AssertTaskCount, Date: "2025-06-02", Count: 2},
			{Type: AssertTaskCount, Date: "2025-06-09", Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAdvanceClockMovesDueResolution(t *testing.T) {
	// "due tomorrow" resolves against the harness clock, so the preview
	// changes when the clock moves across midnight.
	scenario := &Scenario{
		Name:        "clock_advance",
		Description: "advance_clock shifts the parser's due-date resolution",
		Series: SeriesDef{
			ID:     "s1",
			Title:  "One-off",
			Anchor: "2025-06-02T10:00:00Z",
		},
		Clock: "2025-06-02T10:00:00Z",
		Steps: []Step{
			{Do: StepStartLive, Date: "2025-06-02"},
			{Do: StepAdvanceClock, By: "24h"},
			{Do: StepEditNotes, Notes: "/task Follow up due:tomorrow"},
			{Do: StepFinalize, Expect: &ExpectClause{Phase: "FINALIZED"}},
		},
		Assertions: []Assertion{
			{Type: AssertTaskCount, Date: "2025-06-02", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
