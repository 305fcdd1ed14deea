package memory

import (
	"sync"
	"time"

	"github.com/PeriniM/realtime-api-langgraph/internal/models"
)

// TaskRepository is the in-memory task record store. Analysis tasks live for
// the lifetime of the process; there is no persisted form.
type TaskRepository interface {
	Insert(t *models.AnalysisTask)
	// Get returns a snapshot copy so callers never observe in-place mutation.
	Get(id string) (models.AnalysisTask, bool)
	// Mutate applies fn to the stored task under the repository lock.
	Mutate(id string, fn func(*models.AnalysisTask)) bool
	// DeleteOlderThan removes every task created before the cutoff,
	// regardless of status, and returns the removed ids.
	DeleteOlderThan(cutoff time.Time) []string
	Len() int
}

type taskRepo struct {
	mu    sync.Mutex
	tasks map[string]*models.AnalysisTask
}

func NewTaskRepo() TaskRepository {
	return &taskRepo{tasks: make(map[string]*models.AnalysisTask)}
}

func (r *taskRepo) Insert(t *models.AnalysisTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
}

func (r *taskRepo) Get(id string) (models.AnalysisTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return models.AnalysisTask{}, false
	}
	return *t, true
}

func (r *taskRepo) Mutate(id string, fn func(*models.AnalysisTask)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false
	}
	fn(t)
	return true
}

func (r *taskRepo) DeleteOlderThan(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, t := range r.tasks {
		if t.CreatedAt.Before(cutoff) {
			removed = append(removed, id)
			delete(r.tasks, id)
		}
	}
	return removed
}

func (r *taskRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
