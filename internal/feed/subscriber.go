package feed

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// ConnState tracks a feed connection through its lifecycle:
// Connecting -> Streaming -> (Error -> Reconnecting -> Streaming)* -> Closed.
// Closed is terminal and only entered when the consumer disconnects.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateStreaming
	StateError
	StateReconnecting
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateStreaming:
		return "STREAMING"
	case StateError:
		return "ERROR"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SubscriberKind selects which feed a subscriber receives.
type SubscriberKind int

const (
	KindAttendee SubscriberKind = iota
	KindAdmin
)

// Subscriber is one consumer of the live feed. Attendee subscribers carry
// their own credential map; the personalized snapshot is computed per
// subscriber at emit time, so credentials never enter any shared path.
type Subscriber struct {
	ID          uuid.UUID
	Kind        SubscriberKind
	Credentials map[uuid.UUID]string

	ch    chan Snapshot
	state atomic.Int32
}

func newSubscriber(kind SubscriberKind, credentials map[uuid.UUID]string) *Subscriber {
	s := &Subscriber{
		ID:          uuid.New(),
		Kind:        kind,
		Credentials: credentials,
		ch:          make(chan Snapshot, 8),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// Snapshots returns the channel the publisher emits frames on. The channel
// is closed when the subscriber is unsubscribed or the registry shuts down.
func (s *Subscriber) Snapshots() <-chan Snapshot {
	return s.ch
}

func (s *Subscriber) State() ConnState {
	return ConnState(s.state.Load())
}

// setState applies a transition, refusing to leave Closed.
func (s *Subscriber) setState(next ConnState) {
	for {
		cur := s.state.Load()
		if ConnState(cur) == StateClosed {
			return
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

// send delivers a frame without blocking. A subscriber that cannot keep up
// skips this frame; the next emit carries the full state anyway.
func (s *Subscriber) send(snap Snapshot) bool {
	if s.State() == StateClosed {
		return false
	}
	select {
	case s.ch <- snap:
		s.setState(StateStreaming)
		return true
	default:
		return false
	}
}
