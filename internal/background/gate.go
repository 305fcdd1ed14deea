package background

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink is the capability the gate needs from the output channel: whether it
// is currently open, and a way to emit one out-of-band message.
type Sink interface {
	IsOpen() bool
	Deliver(message string) error
}

// DeliveryGate decides when buffered analysis results may enter the live
// conversation. The only safe injection point is the quiet moment right
// after the user stops speaking while no response is being generated;
// anything else would interleave unrelated content into live audio.
type DeliveryGate struct {
	mu                 sync.Mutex
	userSpeaking       bool
	responseInProgress bool

	buffer *ResultBuffer
	sink   Sink
	log    *logrus.Logger
}

func NewDeliveryGate(buffer *ResultBuffer, sink Sink, log *logrus.Logger) *DeliveryGate {
	if log == nil {
		log = logrus.New()
	}
	return &DeliveryGate{buffer: buffer, sink: sink, log: log}
}

// SetUserSpeaking tracks the user's speaking state. Every speech-stopped
// signal is a delivery trigger; deferred results are retained for the next
// trigger rather than dropped.
func (g *DeliveryGate) SetUserSpeaking(speaking bool) {
	g.mu.Lock()
	g.userSpeaking = speaking
	g.mu.Unlock()

	if !speaking {
		g.tryDeliver()
	}
}

func (g *DeliveryGate) SetResponseInProgress(inProgress bool) {
	g.mu.Lock()
	g.responseInProgress = inProgress
	g.mu.Unlock()
}

func (g *DeliveryGate) UserSpeaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userSpeaking
}

func (g *DeliveryGate) ResponseInProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.responseInProgress
}

func (g *DeliveryGate) tryDeliver() {
	if g.buffer.Len() == 0 {
		return
	}

	g.mu.Lock()
	inProgress := g.responseInProgress
	g.mu.Unlock()
	if inProgress {
		g.log.Debug("delivery deferred: response in progress")
		return
	}

	if !g.sink.IsOpen() {
		// Results are conversationally contextual; retrying them against a
		// dead channel would only confuse a later session.
		n := g.buffer.Discard()
		g.log.WithField("discarded", n).Warn("output channel closed, dropped buffered results")
		return
	}

	msg, ok := g.buffer.Drain()
	if !ok {
		return
	}

	if err := g.sink.Deliver(msg); err != nil {
		// Treated as buffer loss, not retried.
		g.log.WithError(err).Error("failed to deliver buffered results")
		return
	}
	g.log.Info("delivered buffered analysis results")
}
