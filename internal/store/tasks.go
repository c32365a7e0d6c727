package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jayp120/syncly/internal/notes"
	"github.com/jayp120/syncly/internal/session"
)

// CreateTask persists a task and returns its assigned id.
func (s *Store) CreateTask(ctx context.Context, task session.Task) (string, error) {
	id := task.ID
	if id == "" {
		id = s.ids.NewID()
	}

	assignees, err := json.Marshal(emptyAsList(task.AssigneeIDs))
	if err != nil {
		return "", fmt.Errorf("create task: marshal assignees: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks
		(id, title, assignee_ids, due_date, priority, created_by, created_at, done)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		task.Title,
		string(assignees),
		task.DueDate,
		string(task.Priority),
		task.CreatedBy,
		task.CreatedAt.Format(time.RFC3339Nano),
		boolToInt(task.Done),
	)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	return id, nil
}

// ListByIDs returns tasks for the given ids, in the given order. Unknown ids
// are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]session.Task, error) {
	var out []session.Task
	for _, id := range ids {
		task, err := s.readTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if task != nil {
			out = append(out, *task)
		}
	}
	return out, nil
}

// SetTaskDone flips a task's done flag.
func (s *Store) SetTaskDone(ctx context.Context, id string, done bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET done = ? WHERE id = ?`, boolToInt(done), id)
	if err != nil {
		return fmt.Errorf("set task done: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set task done: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set task done: no task with id %s", id)
	}
	return nil
}

// readTask loads a single task, or nil if the id is unknown.
func (s *Store) readTask(ctx context.Context, id string) (*session.Task, error) {
	var (
		task      session.Task
		assignees string
		priority  string
		createdAt string
		done      int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, assignee_ids, due_date, priority, created_by, created_at, done
		FROM tasks WHERE id = ?
	`, id).Scan(&task.ID, &task.Title, &assignees, &task.DueDate, &priority,
		&task.CreatedBy, &createdAt, &done)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(assignees), &task.AssigneeIDs); err != nil {
		return nil, fmt.Errorf("read task %s: unmarshal assignees: %w", id, err)
	}
	task.Priority = notes.Priority(priority)
	task.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("read task %s: parse created_at: %w", id, err)
	}
	task.Done = done != 0

	return &task, nil
}

// emptyAsList keeps JSON round-trips stable: nil slices serialize as [].
func emptyAsList(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
