package background

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	maxDeliveredChars   = 200
)

// Worker runs one analysis job to completion, recording the outcome on the
// task it was given. Implemented by workers.AnalysisWorker.
type Worker interface {
	Run(ctx context.Context, taskID string, turn models.ConversationTurn)
}

// TurnCoordinator reacts to completed conversation turns: it records the
// turn, schedules an analysis task, and monitors that task until its result
// can be handed to the ResultBuffer.
type TurnCoordinator struct {
	tasks  services.TaskService
	worker Worker
	buffer *ResultBuffer
	log    *logrus.Logger

	pollInterval time.Duration

	mu      sync.Mutex
	history []models.ConversationTurn
}

func NewTurnCoordinator(tasks services.TaskService, worker Worker, buffer *ResultBuffer, log *logrus.Logger) *TurnCoordinator {
	if log == nil {
		log = logrus.New()
	}
	return &TurnCoordinator{
		tasks:        tasks,
		worker:       worker,
		buffer:       buffer,
		log:          log,
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval overrides the monitor polling interval. Mainly for tests.
func (c *TurnCoordinator) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// OnTurnComplete records the finished turn, creates an analysis task, and
// dispatches the worker plus a self-terminating monitor goroutine. It never
// surfaces worker failures to the caller; those end up on the task record.
func (c *TurnCoordinator) OnTurnComplete(ctx context.Context, userText, assistantText string) string {
	turn := models.ConversationTurn{
		UserText:      userText,
		AssistantText: assistantText,
		Timestamp:     time.Now().UTC(),
	}

	c.mu.Lock()
	c.history = append(c.history, turn)
	c.mu.Unlock()

	taskID := c.tasks.Create(turn)
	c.log.WithField("task_id", taskID).Info("turn completed, analysis scheduled")

	go c.worker.Run(ctx, taskID, turn)
	go c.monitor(ctx, taskID)

	return taskID
}

// History returns a copy of the turn log in completion order.
func (c *TurnCoordinator) History() []models.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConversationTurn, len(c.history))
	copy(out, c.history)
	return out
}

// monitor polls the task until it reaches a terminal state, then hands the
// outcome to the buffer. One monitor per task; it always terminates because
// every task either finishes or is reaped (Get then reports not_found).
func (c *TurnCoordinator) monitor(ctx context.Context, taskID string) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		t := c.tasks.Get(taskID)
		switch t.Status {
		case models.TaskCompleted:
			c.buffer.Push(BufferedResult{
				Kind:    ResultSuccess,
				TaskID:  taskID,
				Message: completionMessage(t.Result),
			})
			c.log.WithField("task_id", taskID).Debug("buffered analysis result")
			return
		case models.TaskError:
			c.buffer.Push(BufferedResult{
				Kind:    ResultError,
				TaskID:  taskID,
				Message: "Background task failed: " + t.Error + ". The main conversation can continue normally.",
			})
			c.log.WithField("task_id", taskID).Debug("buffered analysis error")
			return
		case models.TaskNotFound:
			// Reaped before finishing; the context is gone, drop silently.
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// StartReaper evicts stale tasks on an interval so orphaned monitors
// terminate and memory stays bounded.
func (c *TurnCoordinator) StartReaper(ctx context.Context, every, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tasks.Reap(maxAge)
			}
		}
	}()
}

func completionMessage(result *models.AnalysisResult) string {
	msg := "Conversation insights gathered"
	if result != nil && result.Message != "" {
		msg = result.Message
	}
	if len(msg) > maxDeliveredChars {
		msg = msg[:maxDeliveredChars] + "..."
	}
	return "Conversation analysis: " + msg
}
