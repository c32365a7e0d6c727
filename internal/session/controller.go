package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jayp120/syncly/internal/notes"
	"github.com/jayp120/syncly/internal/series"
)

// Phase identifies where a session attempt is in its lifecycle.
type Phase string

const (
	PhaseIdle                 Phase = "IDLE"
	PhaseLiveActive           Phase = "LIVE_SESSION_ACTIVE"
	PhaseCatchUpActive        Phase = "CATCH_UP_ACTIVE"
	PhaseSuspendedPendingAuth Phase = "SUSPENDED_PENDING_AUTH"
	PhaseFinalizing           Phase = "FINALIZING"
	PhaseFinalized            Phase = "FINALIZED"
	PhaseError                Phase = "ERROR"
)

// Recall is the previous-instance payload shown when a session starts:
// what was written last time, and which of its tasks are still open.
type Recall struct {
	PreviousNotes string `json:"previous_notes"`
	OpenTasks     []Task `json:"open_tasks"`
}

// State is the value object backing one session attempt. Transitions take a
// State and return a new one; the zero-value-with-PhaseIdle NewState is the
// starting point, and Reset returns to it after PhaseFinalized.
type State struct {
	Phase Phase

	Series         *series.Series
	OccurrenceDate string // date key of the occurrence being held
	IsAsynchronous bool

	// Notes is the live buffer; Preview is the parser output for it.
	Notes   string
	Preview []notes.PendingTask

	Recall *Recall

	// Pending holds the stored finalize continuation while suspended for
	// authorization. Consumed exactly once.
	Pending *PendingFinalize

	// Err is the last surfaced failure. The buffer and phase survive it so
	// the user can retry.
	Err *SessionError

	// Result is set once the attempt reaches PhaseFinalized.
	Result *FinalizeResult
}

// PendingFinalize is the one-shot continuation stored when finalize has to
// wait for external authorization.
type PendingFinalize struct {
	Request FinalizeRequest

	// resumePhase is the active phase to fall back to if the replayed
	// finalize fails.
	resumePhase Phase
}

// NewState returns the initial idle state.
func NewState() State {
	return State{Phase: PhaseIdle}
}

// Controller drives session lifecycles. It is a reducer: all methods are
// transitions on State values and the controller itself holds only
// collaborators, never session state.
type Controller struct {
	finalizer *Finalizer
	instances InstanceStore
	tasks     TaskStore
	clock     Clock
	gate      AuthGate // optional

	// mentions is the host-supplied user directory for mention resolution.
	mentions []notes.Mention

	// actor is attributed on tasks created by finalize.
	actor string
}

// NewController creates a Controller. gate may be nil when the installation
// has no external authorization step.
func NewController(finalizer *Finalizer, instances InstanceStore, tasks TaskStore, clock Clock, gate AuthGate, mentions []notes.Mention, actor string) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Controller{
		finalizer: finalizer,
		instances: instances,
		tasks:     tasks,
		clock:     clock,
		gate:      gate,
		mentions:  mentions,
		actor:     actor,
	}
}

// StartLiveSession opens a live note-taking session for the given occurrence
// date. Only reachable from PhaseIdle. The notes buffer is seeded from the
// series agenda template and the recall payload is loaded for display.
//
// The occurrence date is the caller's decision: the controller does not run
// the occurrence calculator itself.
func (c *Controller) StartLiveSession(ctx context.Context, st State, s *series.Series, dateKey string) (State, error) {
	if st.Phase != PhaseIdle {
		return st, newTransitionError(st.Phase, "start live session")
	}

	recall, err := c.loadRecall(ctx, s.ID, dateKey)
	if err != nil {
		return st, err
	}

	next := NewState()
	next.Phase = PhaseLiveActive
	next.Series = s
	next.OccurrenceDate = dateKey
	next.IsAsynchronous = false
	next.Notes = s.Agenda
	next.Preview = c.parse(s, s.Agenda)
	next.Recall = recall

	slog.Info("live session started", "series", s.ID, "date", dateKey)
	return next, nil
}

// StartCatchUp opens an asynchronous catch-up session for a missed
// occurrence. Only reachable from PhaseIdle, and only when the missed-session
// detector surfaced a date. Notes start empty; the recall payload is anchored
// on the missed date.
func (c *Controller) StartCatchUp(ctx context.Context, st State, s *series.Series, missedDateKey string) (State, error) {
	if st.Phase != PhaseIdle {
		return st, newTransitionError(st.Phase, "start catch-up")
	}

	recall, err := c.loadRecall(ctx, s.ID, missedDateKey)
	if err != nil {
		return st, err
	}

	next := NewState()
	next.Phase = PhaseCatchUpActive
	next.Series = s
	next.OccurrenceDate = missedDateKey
	next.IsAsynchronous = true
	next.Recall = recall

	slog.Info("catch-up started", "series", s.ID, "date", missedDateKey)
	return next, nil
}

// UpdateNotes replaces the notes buffer and recomputes the task preview.
// The host calls this after every edit; parsing is pure and cheap, so the
// preview is always current. Allowed only while a session is active.
func (c *Controller) UpdateNotes(st State, text string) State {
	if st.Phase != PhaseLiveActive && st.Phase != PhaseCatchUpActive {
		return st
	}
	st.Notes = text
	st.Preview = c.parse(st.Series, text)
	return st
}

// RequestFinalize finalizes the active session. If the authorization gate
// reports an incomplete external step, the finalize parameters are stored
// verbatim and the session suspends; AuthorizationCompleted replays them
// later. On failure the session returns to its active phase with the error
// attached, buffer intact.
func (c *Controller) RequestFinalize(ctx context.Context, st State) (State, error) {
	if st.Phase != PhaseLiveActive && st.Phase != PhaseCatchUpActive {
		return st, newTransitionError(st.Phase, "finalize")
	}

	req := FinalizeRequest{
		SeriesID:       st.Series.ID,
		OccurrenceDate: st.OccurrenceDate,
		NotesText:      st.Notes,
		PendingTasks:   st.Preview,
		Actor:          c.actor,
		IsAsynchronous: st.IsAsynchronous,
	}

	if c.gate != nil && c.gate.RequiresAuthorization(ctx) {
		st.Pending = &PendingFinalize{Request: req, resumePhase: st.Phase}
		prior := st.Phase
		st.Phase = PhaseSuspendedPendingAuth
		slog.Info("finalize suspended pending authorization",
			"series", req.SeriesID, "date", req.OccurrenceDate, "from", prior)
		return st, nil
	}

	return c.finalize(ctx, st, req, st.Phase)
}

// AuthorizationCompleted is the authorization-completed signal handler. It
// consumes the stored continuation exactly once: the pending parameters are
// cleared before finalize is re-invoked, so a duplicate or late-arriving
// signal finds nothing to do and returns the state unchanged.
func (c *Controller) AuthorizationCompleted(ctx context.Context, st State) (State, error) {
	if st.Phase != PhaseSuspendedPendingAuth || st.Pending == nil {
		// Signal with no finalize pending: a no-op, not an error.
		return st, nil
	}

	pending := *st.Pending
	st.Pending = nil

	slog.Info("authorization completed, resuming finalize",
		"series", pending.Request.SeriesID, "date", pending.Request.OccurrenceDate)

	return c.finalize(ctx, st, pending.Request, pending.resumePhase)
}

// Cancel discards the in-memory buffer and returns to PhaseIdle with no
// persisted effect. Callable from any phase.
func (c *Controller) Cancel(st State) State {
	if st.Phase != PhaseIdle {
		slog.Info("session cancelled", "phase", st.Phase)
	}
	return NewState()
}

// Reset returns an idle state for the next occurrence after a finalized
// attempt.
func (c *Controller) Reset(st State) State {
	return NewState()
}

// finalize runs the finalizer and folds the outcome into the state.
// resumePhase is the active phase to restore on failure.
func (c *Controller) finalize(ctx context.Context, st State, req FinalizeRequest, resumePhase Phase) (State, error) {
	st.Phase = PhaseFinalizing
	st.Err = nil

	result, err := c.finalizer.Finalize(ctx, req)
	if err != nil {
		// PhaseError is recoverable: control returns to the prior active
		// phase with the error attached and the notes buffer preserved.
		var se *SessionError
		if !errors.As(err, &se) {
			se = newStoreError(req.SeriesID, req.OccurrenceDate, err)
		}
		st.Phase = resumePhase
		st.Err = se
		slog.Error("finalize failed",
			"series", req.SeriesID, "date", req.OccurrenceDate,
			"code", se.Code, "error", se)
		return st, se
	}

	st.Phase = PhaseFinalized
	st.Result = &result
	return st, nil
}

// parse runs the note parser with the series' team as fallback assignees.
func (c *Controller) parse(s *series.Series, text string) []notes.PendingTask {
	return notes.Parse(text, notes.Options{
		MentionCandidates:   c.mentions,
		FallbackAssigneeIDs: s.AttendeeIDs,
		AsOf:                c.clock.Now(),
	})
}

// loadRecall finds the most recent instance before dateKey and the still-open
// tasks it references. A series with no prior instance recalls nothing.
func (c *Controller) loadRecall(ctx context.Context, seriesID, dateKey string) (*Recall, error) {
	insts, err := c.instances.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, newStoreError(seriesID, dateKey, err)
	}

	var prev *Instance
	for i := range insts {
		inst := &insts[i]
		if inst.OccurrenceDate >= dateKey {
			continue
		}
		if prev == nil || inst.OccurrenceDate > prev.OccurrenceDate {
			prev = inst
		}
	}
	if prev == nil {
		return nil, nil
	}

	tasks, err := c.tasks.ListByIDs(ctx, prev.TaskIDs)
	if err != nil {
		return nil, newStoreError(seriesID, dateKey, err)
	}

	open := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.Done {
			open = append(open, task)
		}
	}

	return &Recall{PreviousNotes: prev.NotesText, OpenTasks: open}, nil
}
