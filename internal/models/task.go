package models

import "time"

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskError     TaskStatus = "error"
	TaskNotFound  TaskStatus = "not_found"
)

// Terminal reports whether a task in this status can still change.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskError || s == TaskNotFound
}

// AnalysisResult is the structured payload of a completed analysis task.
type AnalysisResult struct {
	Action     string    `json:"action"` // always "conversation_analysis"
	Message    string    `json:"message"`
	SourceTurn string    `json:"source_turn"`
	Timestamp  time.Time `json:"timestamp"`
}

// AnalysisTask is one scheduled background analysis job. Exactly one of
// Result/Error is set once the task reaches a terminal status.
type AnalysisTask struct {
	ID     string     `json:"task_id"`
	Status TaskStatus `json:"status"`

	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Message string `json:"message"` // human-readable progress note
}
