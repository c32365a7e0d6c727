package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jayp120/syncly/internal/session"
)

// InstanceExists reports whether an instance exists for the occurrence.
func (s *Store) InstanceExists(ctx context.Context, seriesID, dateKey string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM instances
		WHERE series_id = ? AND occurrence_date = ?
	`, seriesID, dateKey).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check instance: %w", err)
	}
	return count > 0, nil
}

// CreateInstance persists a meeting instance. The insert claims the
// (series_id, occurrence_date) slot atomically via the UNIQUE constraint:
// when a concurrent caller got there first, no row is written and a
// DUPLICATE_INSTANCE error is returned.
func (s *Store) CreateInstance(ctx context.Context, inst session.Instance) (session.Instance, error) {
	if inst.ID == "" {
		inst.ID = s.ids.NewID()
	}

	taskIDs, err := json.Marshal(emptyAsList(inst.TaskIDs))
	if err != nil {
		return session.Instance{}, fmt.Errorf("create instance: marshal task ids: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO instances
		(id, series_id, occurrence_date, notes_text, task_ids, finalized_at, is_asynchronous)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(series_id, occurrence_date) DO NOTHING
	`,
		inst.ID,
		inst.SeriesID,
		inst.OccurrenceDate,
		inst.NotesText,
		string(taskIDs),
		inst.FinalizedAt.Format(time.RFC3339Nano),
		boolToInt(inst.IsAsynchronous),
	)
	if err != nil {
		return session.Instance{}, fmt.Errorf("create instance: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return session.Instance{}, fmt.Errorf("create instance: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return session.Instance{}, session.NewDuplicateInstanceError(inst.SeriesID, inst.OccurrenceDate)
	}

	return inst, nil
}

// ListBySeries returns all instances of a series ordered by occurrence date.
func (s *Store) ListBySeries(ctx context.Context, seriesID string) ([]session.Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, series_id, occurrence_date, notes_text, task_ids, finalized_at, is_asynchronous
		FROM instances
		WHERE series_id = ?
		ORDER BY occurrence_date
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var out []session.Instance
	for rows.Next() {
		var (
			inst        session.Instance
			taskIDs     string
			finalizedAt string
			async       int
		)
		if err := rows.Scan(&inst.ID, &inst.SeriesID, &inst.OccurrenceDate,
			&inst.NotesText, &taskIDs, &finalizedAt, &async); err != nil {
			return nil, fmt.Errorf("list instances: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(taskIDs), &inst.TaskIDs); err != nil {
			return nil, fmt.Errorf("list instances: unmarshal task ids: %w", err)
		}
		inst.FinalizedAt, err = time.Parse(time.RFC3339Nano, finalizedAt)
		if err != nil {
			return nil, fmt.Errorf("list instances: parse finalized_at: %w", err)
		}
		inst.IsAsynchronous = async != 0
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	return out, nil
}

// ExistingDateKeys returns the set of occurrence dates that already have an
// instance, in the shape the missed-session detector consumes.
func (s *Store) ExistingDateKeys(ctx context.Context, seriesID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurrence_date FROM instances WHERE series_id = ?
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("existing dates: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("existing dates: scan: %w", err)
		}
		out[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("existing dates: %w", err)
	}

	return out, nil
}
