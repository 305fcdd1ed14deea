package background

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu        sync.Mutex
	open      bool
	failNext  bool
	delivered []string
}

func (s *fakeSink) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *fakeSink) Deliver(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("write failed")
	}
	s.delivered = append(s.delivered, message)
	return nil
}

func (s *fakeSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.delivered))
	copy(out, s.delivered)
	return out
}

func TestGateDeliversOnSpeechStop(t *testing.T) {
	buf := NewResultBuffer()
	sink := &fakeSink{open: true}
	gate := NewDeliveryGate(buf, sink, nil)

	buf.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "insight"})

	gate.SetUserSpeaking(true)
	require.Empty(t, sink.messages(), "nothing may be delivered while the user speaks")

	gate.SetUserSpeaking(false)
	require.Equal(t, []string{"insight"}, sink.messages())
	require.Equal(t, 0, buf.Len())
}

func TestGateDefersWhileResponseInProgress(t *testing.T) {
	buf := NewResultBuffer()
	sink := &fakeSink{open: true}
	gate := NewDeliveryGate(buf, sink, nil)

	buf.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "insight"})

	gate.SetResponseInProgress(true)
	gate.SetUserSpeaking(false)
	require.Empty(t, sink.messages(), "delivery must wait out an in-flight response")
	require.Equal(t, 1, buf.Len(), "deferred results stay buffered")

	gate.SetResponseInProgress(false)
	gate.SetUserSpeaking(false)
	require.Equal(t, []string{"insight"}, sink.messages())
}

func TestGateDeliversAtMostOncePerResult(t *testing.T) {
	buf := NewResultBuffer()
	sink := &fakeSink{open: true}
	gate := NewDeliveryGate(buf, sink, nil)

	buf.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "insight"})

	gate.SetUserSpeaking(false)
	gate.SetUserSpeaking(false)
	require.Len(t, sink.messages(), 1)
}

func TestGateTracksSpeakingState(t *testing.T) {
	gate := NewDeliveryGate(NewResultBuffer(), &fakeSink{open: true}, nil)

	require.False(t, gate.UserSpeaking())
	require.False(t, gate.ResponseInProgress())

	gate.SetUserSpeaking(true)
	gate.SetResponseInProgress(true)
	require.True(t, gate.UserSpeaking())
	require.True(t, gate.ResponseInProgress())

	gate.SetUserSpeaking(false)
	gate.SetResponseInProgress(false)
	require.False(t, gate.UserSpeaking())
	require.False(t, gate.ResponseInProgress())
}

func TestGateEmptyBufferIsNoop(t *testing.T) {
	buf := NewResultBuffer()
	sink := &fakeSink{open: true}
	gate := NewDeliveryGate(buf, sink, nil)

	gate.SetUserSpeaking(false)
	require.Empty(t, sink.messages())
}

func TestGateDiscardsOnClosedSink(t *testing.T) {
	buf := NewResultBuffer()
	sink := &fakeSink{open: false}
	gate := NewDeliveryGate(buf, sink, nil)

	buf.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "stale"})
	gate.SetUserSpeaking(false)

	require.Empty(t, sink.messages())
	require.Equal(t, 0, buf.Len(), "results for a dead channel are dropped, not retried")
}

func TestGateDeliveryErrorLosesBuffer(t *testing.T) {
	buf := NewResultBuffer()
	sink := &fakeSink{open: true, failNext: true}
	gate := NewDeliveryGate(buf, sink, nil)

	buf.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_1", Message: "lost"})
	gate.SetUserSpeaking(false)

	require.Empty(t, sink.messages())
	require.Equal(t, 0, buf.Len(), "a failed delivery counts as buffer loss")

	// next result goes through normally
	buf.Push(BufferedResult{Kind: ResultSuccess, TaskID: "task_2", Message: "next"})
	gate.SetUserSpeaking(false)
	require.Equal(t, []string{"next"}, sink.messages())
}
