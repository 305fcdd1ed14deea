package workers

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PeriniM/realtime-api-langgraph/internal/memory"
	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	"github.com/PeriniM/realtime-api-langgraph/internal/providers/llm"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
)

// AnalysisWorker executes one conversation-analysis job per turn against
// the reasoning provider. Failures land on the task record and are never
// retried here; retry policy belongs to whoever reads the task.
type AnalysisWorker struct {
	Tasks  services.TaskService
	LLM    llm.Provider
	Memory memory.ThreadMemory

	ThreadID     string
	HistoryLimit int64
	CallTimeout  time.Duration

	Logger *logrus.Logger
}

func (w *AnalysisWorker) defaults() {
	if w.ThreadID == "" {
		w.ThreadID = memory.DefaultThreadID
	}
	if w.HistoryLimit <= 0 {
		w.HistoryLimit = 40
	}
	if w.CallTimeout <= 0 {
		w.CallTimeout = 60 * time.Second
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}
}

// Run drives the task pending -> running -> completed|error. It is meant to
// be dispatched as its own goroutine; the reasoning call can take seconds.
func (w *AnalysisWorker) Run(ctx context.Context, taskID string, turn models.ConversationTurn) {
	w.defaults()
	log := w.Logger.WithField("task_id", taskID)

	w.Tasks.SetRunning(taskID)

	ctx, cancel := context.WithTimeout(ctx, w.CallTimeout)
	defer cancel()

	prompt, err := w.buildPrompt(ctx, turn)
	if err != nil {
		log.WithError(err).Error("failed to load analyst memory")
		w.Tasks.SetError(taskID, err.Error())
		return
	}

	turnNote := `User: "` + turn.UserText + `"` + "\n" + `AI: "` + turn.AssistantText + `"`
	if err := w.Memory.Append(ctx, w.ThreadID, memory.Message{Role: "user", Content: turnNote}); err != nil {
		log.WithError(err).Warn("failed to append turn to analyst memory")
	}

	analysis, err := w.collect(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("analysis call failed")
		w.Tasks.SetError(taskID, err.Error())
		return
	}

	if err := w.Memory.Append(ctx, w.ThreadID, memory.Message{Role: "assistant", Content: analysis}); err != nil {
		log.WithError(err).Warn("failed to append analysis to analyst memory")
	}

	w.Tasks.SetCompleted(taskID, models.AnalysisResult{
		Action:     "conversation_analysis",
		Message:    analysis,
		SourceTurn: turn.UserText,
		Timestamp:  time.Now().UTC(),
	})
	log.Info("analysis task completed")
}

// buildPrompt renders prior analyst memory plus the current turn. The
// reasoning call itself is stateless; continuity comes from the thread
// memory keyed by ThreadID.
func (w *AnalysisWorker) buildPrompt(ctx context.Context, turn models.ConversationTurn) (string, error) {
	history, err := w.Memory.History(ctx, w.ThreadID, w.HistoryLimit)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, msg := range history {
			sb.WriteString(msg.Role)
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("New conversation turn:\n")
	sb.WriteString(`User: "` + turn.UserText + `"` + "\n")
	sb.WriteString(`AI: "` + turn.AssistantText + `"` + "\n\n")
	sb.WriteString("Please analyze this turn.")
	return sb.String(), nil
}

func (w *AnalysisWorker) collect(ctx context.Context, prompt string) (string, error) {
	chunks, errs := w.LLM.StreamAnswer(ctx, prompt)

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}
	if err, ok := <-errs; ok && err != nil {
		return "", err
	}
	return full.String(), nil
}
