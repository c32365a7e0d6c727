package session

import (
	"context"
	"errors"
	"fmt"
)

// In-memory collaborators for finalizer and controller tests.

type memTaskStore struct {
	tasks  []Task
	nextID int
	failOn string // title that triggers a store failure
}

func newMemTaskStore() *memTaskStore { return &memTaskStore{} }

func (s *memTaskStore) CreateTask(_ context.Context, task Task) (string, error) {
	if s.failOn != "" && task.Title == s.failOn {
		return "", errors.New("task store unavailable")
	}
	s.nextID++
	task.ID = fmt.Sprintf("task-%d", s.nextID)
	s.tasks = append(s.tasks, task)
	return task.ID, nil
}

func (s *memTaskStore) ListByIDs(_ context.Context, ids []string) ([]Task, error) {
	var out []Task
	for _, id := range ids {
		for _, task := range s.tasks {
			if task.ID == id {
				out = append(out, task)
			}
		}
	}
	return out, nil
}

type memInstanceStore struct {
	instances []Instance
	nextID    int
}

func newMemInstanceStore() *memInstanceStore { return &memInstanceStore{} }

func (s *memInstanceStore) InstanceExists(_ context.Context, seriesID, dateKey string) (bool, error) {
	for _, inst := range s.instances {
		if inst.SeriesID == seriesID && inst.OccurrenceDate == dateKey {
			return true, nil
		}
	}
	return false, nil
}

func (s *memInstanceStore) CreateInstance(_ context.Context, inst Instance) (Instance, error) {
	// Mirror the store's uniqueness constraint, typed error included.
	for _, existing := range s.instances {
		if existing.SeriesID == inst.SeriesID && existing.OccurrenceDate == inst.OccurrenceDate {
			return Instance{}, NewDuplicateInstanceError(inst.SeriesID, inst.OccurrenceDate)
		}
	}
	s.nextID++
	inst.ID = fmt.Sprintf("inst-%d", s.nextID)
	s.instances = append(s.instances, inst)
	return inst, nil
}

func (s *memInstanceStore) ListBySeries(_ context.Context, seriesID string) ([]Instance, error) {
	var out []Instance
	for _, inst := range s.instances {
		if inst.SeriesID == seriesID {
			out = append(out, inst)
		}
	}
	return out, nil
}

// racyInstanceStore simulates a concurrent finalize that lands between the
// existence check and the insert: the check misses, the insert collides.
type racyInstanceStore struct {
	*memInstanceStore
}

func (s *racyInstanceStore) InstanceExists(context.Context, string, string) (bool, error) {
	return false, nil
}

type recordingSync struct {
	synced []Instance
	err    error
}

func (s *recordingSync) TrySync(_ context.Context, inst Instance) error {
	if s.err != nil {
		return s.err
	}
	s.synced = append(s.synced, inst)
	return nil
}

type stubGate struct{ pending bool }

func (g *stubGate) RequiresAuthorization(context.Context) bool { return g.pending }
