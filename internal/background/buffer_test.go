package background

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultBufferDrainEmpty(t *testing.T) {
	b := NewResultBuffer()

	msg, ok := b.Drain()
	require.False(t, ok)
	require.Empty(t, msg)
}

func TestResultBufferSingleItemVerbatim(t *testing.T) {
	b := NewResultBuffer()
	b.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "Conversation analysis: looking good"})

	msg, ok := b.Drain()
	require.True(t, ok)
	require.Equal(t, "Conversation analysis: looking good", msg)
	require.Equal(t, 0, b.Len())
}

func TestResultBufferCompositeKeepsArrivalOrder(t *testing.T) {
	b := NewResultBuffer()
	b.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "first"})
	b.Push(BufferedResult{Kind: ResultError, TaskID: "task_2", Message: "second"})
	b.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_3", Message: "third"})

	msg, ok := b.Drain()
	require.True(t, ok)
	require.Equal(t, "Here are the results from the background tasks:\n- first\n- second\n- third", msg)
}

func TestResultBufferDrainClears(t *testing.T) {
	b := NewResultBuffer()
	b.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "once"})

	_, ok := b.Drain()
	require.True(t, ok)

	_, ok = b.Drain()
	require.False(t, ok, "a drained result must not be delivered twice")
}

func TestResultBufferDiscard(t *testing.T) {
	b := NewResultBuffer()
	b.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "a"})
	b.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_2", Message: "b"})

	require.Equal(t, 2, b.Discard())
	require.Equal(t, 0, b.Len())

	_, ok := b.Drain()
	require.False(t, ok)
}
