package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	memrepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/memory"

	"github.com/google/uuid"
)

// TaskService owns the lifecycle of background analysis tasks. Status moves
// forward only (pending -> running -> completed|error); mutations after a
// terminal status are no-ops, which makes duplicate completion signals safe.
type TaskService interface {
	// Create inserts a pending task for the turn and returns its id. The
	// actual analysis is dispatched separately; Create never blocks on it.
	Create(turn models.ConversationTurn) string
	// Get returns a snapshot. Unknown ids yield a not_found pseudo-task so
	// polling code stays total.
	Get(id string) models.AnalysisTask
	SetRunning(id string)
	SetCompleted(id string, result models.AnalysisResult)
	SetError(id string, message string)
	// Reap deletes every task older than maxAge, in-flight or not. It is a
	// memory bound, not a correctness mechanism.
	Reap(maxAge time.Duration) int
	Count() int
}

type taskService struct {
	tasks memrepo.TaskRepository
	log   *logrus.Logger
}

func NewTaskService(tasks memrepo.TaskRepository, log *logrus.Logger) TaskService {
	if log == nil {
		log = logrus.New()
	}
	return &taskService{tasks: tasks, log: log}
}

func (s *taskService) Create(turn models.ConversationTurn) string {
	id := "task_" + uuid.NewString()

	note := turn.UserText
	if len(note) > 50 {
		note = note[:50] + "..."
	}

	s.tasks.Insert(&models.AnalysisTask{
		ID:        id,
		Status:    models.TaskPending,
		CreatedAt: time.Now().UTC(),
		Message:   "Processing: " + note,
	})

	s.log.WithField("task_id", id).Debug("analysis task created")
	return id
}

func (s *taskService) Get(id string) models.AnalysisTask {
	t, ok := s.tasks.Get(id)
	if !ok {
		return models.AnalysisTask{
			ID:     id,
			Status: models.TaskNotFound,
			Error:  "task not found",
		}
	}
	return t
}

func (s *taskService) SetRunning(id string) {
	s.tasks.Mutate(id, func(t *models.AnalysisTask) {
		if t.Status != models.TaskPending {
			return
		}
		t.Status = models.TaskRunning
		t.Message = "Task is running"
	})
}

func (s *taskService) SetCompleted(id string, result models.AnalysisResult) {
	s.tasks.Mutate(id, func(t *models.AnalysisTask) {
		if t.Status.Terminal() {
			return
		}
		now := time.Now().UTC()
		t.Status = models.TaskCompleted
		t.Result = &result
		t.Error = ""
		t.CompletedAt = &now
		t.Message = "Task completed successfully"
	})
}

func (s *taskService) SetError(id string, message string) {
	s.tasks.Mutate(id, func(t *models.AnalysisTask) {
		if t.Status.Terminal() {
			return
		}
		now := time.Now().UTC()
		t.Status = models.TaskError
		t.Error = message
		t.Result = nil
		t.CompletedAt = &now
		t.Message = "Task failed: " + message
	})
}

func (s *taskService) Reap(maxAge time.Duration) int {
	removed := s.tasks.DeleteOlderThan(time.Now().UTC().Add(-maxAge))
	if len(removed) > 0 {
		s.log.WithFields(logrus.Fields{
			"count":   len(removed),
			"max_age": maxAge.String(),
		}).Info("reaped stale analysis tasks")
	}
	return len(removed)
}

func (s *taskService) Count() int { return s.tasks.Len() }
