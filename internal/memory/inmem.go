package memory

import (
	"context"
	"sync"
)

// InMem is a process-local ThreadMemory, used when no Redis is configured
// and in tests.
type InMem struct {
	mu      sync.Mutex
	threads map[string][]Message
}

func NewInMem() *InMem {
	return &InMem{threads: make(map[string][]Message)}
}

func (m *InMem) Append(_ context.Context, threadID string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[threadID] = append(m.threads[threadID], msg)
	return nil
}

func (m *InMem) History(_ context.Context, threadID string, limit int64) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.threads[threadID]
	if limit > 0 && int64(len(msgs)) > limit {
		msgs = msgs[int64(len(msgs))-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *InMem) Clear(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, threadID)
	return nil
}
