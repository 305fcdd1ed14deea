package memory

import "context"

// DefaultThreadID is the fixed thread key for the conversation analyst.
// Memory is session-scoped through the thread id, not per-connection.
const DefaultThreadID = "conversation_analysis"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ThreadMemory is the analyst's persistent conversation memory: an ordered
// message log per thread id that survives across turns.
type ThreadMemory interface {
	Append(ctx context.Context, threadID string, msg Message) error
	History(ctx context.Context, threadID string, limit int64) ([]Message, error)
	Clear(ctx context.Context, threadID string) error
}
