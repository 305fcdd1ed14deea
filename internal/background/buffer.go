package background

import (
	"strings"
	"sync"
)

type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
)

// BufferedResult is one flush-pending analysis outcome.
type BufferedResult struct {
	Kind    ResultKind
	TaskID  string
	Message string
}

// ResultBuffer accumulates completed results until the DeliveryGate decides
// it is safe to flush them into the conversation. Push and Drain are atomic
// with respect to each other; no item is read twice or lost between check
// and clear.
type ResultBuffer struct {
	mu    sync.Mutex
	items []BufferedResult
}

func NewResultBuffer() *ResultBuffer {
	return &ResultBuffer{}
}

func (b *ResultBuffer) Push(item BufferedResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, item)
}

func (b *ResultBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Drain empties the buffer and returns the message to deliver. A single
// item is returned verbatim; multiple items are folded into one composite
// message in arrival order. ok is false when there was nothing to deliver.
func (b *ResultBuffer) Drain() (message string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch len(b.items) {
	case 0:
		return "", false
	case 1:
		message = b.items[0].Message
	default:
		var sb strings.Builder
		sb.WriteString("Here are the results from the background tasks:")
		for _, it := range b.items {
			sb.WriteString("\n- ")
			sb.WriteString(it.Message)
		}
		message = sb.String()
	}

	b.items = nil
	return message, true
}

// Discard drops everything buffered. Used when the output channel is gone
// and the results are stale.
func (b *ResultBuffer) Discard() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.items)
	b.items = nil
	return n
}
