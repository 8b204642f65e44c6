package services

import (
	"sync"
	"time"

	"github.com/znakly/agent/internal/domain"
)

// TaskRegistry is the process-lifetime collection of submitted tasks. It is
// written by the dispatcher (whole rounds) and the poller (status only) and
// read by the status query; every mutation holds the lock so no reader can
// observe a half-applied round.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks []domain.TaskRecord
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{}
}

// ApplyRound evicts records older than retention and appends the new batch
// as one atomic update.
func (r *TaskRegistry) ApplyRound(batch []domain.TaskRecord, now time.Time, retention time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.tasks[:0]
	for _, task := range r.tasks {
		if now.Sub(task.CreatedAt) < retention {
			kept = append(kept, task)
		}
	}
	r.tasks = append(kept, batch...)
}

// UpdateStatus records the latest server-reported status for one task.
func (r *TaskRegistry) UpdateStatus(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Status = status
			return
		}
	}
}

// Snapshot returns a copy of the current records.
func (r *TaskRegistry) Snapshot() []domain.TaskRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]domain.TaskRecord, len(r.tasks))
	copy(snapshot, r.tasks)
	return snapshot
}

func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
