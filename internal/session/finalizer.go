package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jayp120/syncly/internal/notes"
)

// FinalizeRequest carries everything needed to turn an open session into an
// immutable instance. When a session suspends for authorization, the request
// is stored verbatim and replayed unchanged.
type FinalizeRequest struct {
	SeriesID       string              `json:"series_id"`
	OccurrenceDate string              `json:"occurrence_date"`
	NotesText      string              `json:"notes_text"`
	PendingTasks   []notes.PendingTask `json:"pending_tasks"`
	Actor          string              `json:"actor"`
	IsAsynchronous bool                `json:"is_asynchronous"`
}

// FinalizeResult is the outcome of a successful finalize.
type FinalizeResult struct {
	Instance Instance

	// SyncWarning is set when calendar sync failed. The finalize itself
	// succeeded; the caller decides whether and how to surface it.
	SyncWarning error
}

// Finalizer creates the persisted record of a held session: one task per
// pending descriptor, then the instance referencing them.
type Finalizer struct {
	tasks     TaskStore
	instances InstanceStore
	calendar  CalendarSync // optional
	clock     Clock
}

// NewFinalizer creates a Finalizer. calendar may be nil to skip sync.
func NewFinalizer(tasks TaskStore, instances InstanceStore, calendar CalendarSync, clock Clock) *Finalizer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Finalizer{
		tasks:     tasks,
		instances: instances,
		calendar:  calendar,
		clock:     clock,
	}
}

// Finalize persists the session exactly once per (series, occurrence date).
//
// Contract:
//  1. Rejects with DUPLICATE_INSTANCE if an instance already exists for the
//     occurrence. This is the guard against double-submission and retries.
//  2. Creates one task per pending descriptor, in order, attributed to the
//     actor.
//  3. Creates the instance with the collected task ids and FinalizedAt from
//     the clock.
//  4. Attempts calendar sync. A sync failure does not roll anything back
//     and does not fail the call; it is returned as Result.SyncWarning.
//
// Side effects go only through the task store, instance store, and calendar
// sync collaborators.
func (f *Finalizer) Finalize(ctx context.Context, req FinalizeRequest) (FinalizeResult, error) {
	exists, err := f.instances.InstanceExists(ctx, req.SeriesID, req.OccurrenceDate)
	if err != nil {
		return FinalizeResult{}, newStoreError(req.SeriesID, req.OccurrenceDate,
			fmt.Errorf("check instance: %w", err))
	}
	if exists {
		return FinalizeResult{}, NewDuplicateInstanceError(req.SeriesID, req.OccurrenceDate)
	}

	now := f.clock.Now()

	taskIDs := make([]string, 0, len(req.PendingTasks))
	for _, pt := range req.PendingTasks {
		id, err := f.tasks.CreateTask(ctx, Task{
			Title:       pt.Title,
			AssigneeIDs: pt.AssigneeIDs,
			DueDate:     pt.DueDate,
			Priority:    pt.Priority,
			CreatedBy:   req.Actor,
			CreatedAt:   now,
		})
		if err != nil {
			return FinalizeResult{}, newStoreError(req.SeriesID, req.OccurrenceDate,
				fmt.Errorf("create task %q: %w", pt.Title, err))
		}
		taskIDs = append(taskIDs, id)
	}

	inst, err := f.instances.CreateInstance(ctx, Instance{
		SeriesID:       req.SeriesID,
		OccurrenceDate: req.OccurrenceDate,
		NotesText:      req.NotesText,
		TaskIDs:        taskIDs,
		FinalizedAt:    now,
		IsAsynchronous: req.IsAsynchronous,
	})
	if err != nil {
		// The store rejects a concurrent finalize of the same occurrence
		// with its own duplicate error; keep that identity intact.
		if IsDuplicateInstance(err) {
			return FinalizeResult{}, err
		}
		return FinalizeResult{}, newStoreError(req.SeriesID, req.OccurrenceDate,
			fmt.Errorf("create instance: %w", err))
	}

	result := FinalizeResult{Instance: inst}

	if f.calendar != nil {
		if syncErr := f.calendar.TrySync(ctx, inst); syncErr != nil {
			// Non-fatal by contract: the instance and tasks stand.
			slog.Warn("calendar sync failed",
				"series", req.SeriesID,
				"date", req.OccurrenceDate,
				"error", syncErr,
			)
			result.SyncWarning = syncErr
		}
	}

	slog.Info("session finalized",
		"series", req.SeriesID,
		"date", req.OccurrenceDate,
		"instance", inst.ID,
		"tasks", len(taskIDs),
		"asynchronous", req.IsAsynchronous,
	)

	return result, nil
}
