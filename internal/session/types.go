package session

import (
	"context"
	"time"

	"github.com/jayp120/syncly/internal/notes"
)

// Instance is the finalized historical record for one occurrence that was
// actually held. Instances are append-only: created exclusively by the
// Finalizer and never mutated afterward.
type Instance struct {
	ID       string `json:"id"`
	SeriesID string `json:"series_id"`

	// OccurrenceDate is the date key (YYYY-MM-DD) of the occurrence.
	// At most one instance exists per (SeriesID, OccurrenceDate).
	OccurrenceDate string `json:"occurrence_date"`

	NotesText string `json:"notes_text"`

	// TaskIDs lists created tasks in the order their pending descriptors
	// appeared in the notes.
	TaskIDs []string `json:"task_ids"`

	FinalizedAt time.Time `json:"finalized_at"`

	// IsAsynchronous is true for catch-up posts.
	IsAsynchronous bool `json:"is_asynchronous"`
}

// Task is the persisted record created from a PendingTask at finalize time.
type Task struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	AssigneeIDs []string       `json:"assignee_ids"`
	DueDate     string         `json:"due_date"`
	Priority    notes.Priority `json:"priority"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	Done        bool           `json:"done"`
}

// TaskStore persists tasks. Implemented by store.Store (SQLite) in
// production and by in-memory fakes in tests.
type TaskStore interface {
	// CreateTask persists the task and returns its assigned id.
	CreateTask(ctx context.Context, task Task) (string, error)

	// ListByIDs returns the tasks for the given ids, in the given order.
	// Unknown ids are skipped, not errors.
	ListByIDs(ctx context.Context, ids []string) ([]Task, error)
}

// InstanceStore persists meeting instances. The (seriesID, date) uniqueness
// check must be atomic in the implementation; the finalizer treats it as a
// precondition it checks and reacts to, not one it enforces with locks.
type InstanceStore interface {
	InstanceExists(ctx context.Context, seriesID, dateKey string) (bool, error)
	CreateInstance(ctx context.Context, inst Instance) (Instance, error)
	ListBySeries(ctx context.Context, seriesID string) ([]Instance, error)
}

// CalendarSync pushes a finalized instance to an external calendar. Failures
// are non-fatal by contract: the finalizer converts them into a warning.
type CalendarSync interface {
	TrySync(ctx context.Context, inst Instance) error
}

// Clock supplies the current time. Production uses SystemClock; tests use
// testutil.FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AuthGate reports whether finalization must wait for an external
// authorization step that has not completed yet. A nil gate never suspends.
type AuthGate interface {
	RequiresAuthorization(ctx context.Context) bool
}
