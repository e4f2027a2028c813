package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/pkg/logger"
)

// Source computes snapshot contents. Implemented by the aggregator service.
type Source interface {
	AttendeeSnapshot(ctx context.Context, credentials map[uuid.UUID]string) ([]AttendeeMeeting, error)
	AdminSnapshot(ctx context.Context) ([]MeetingAggregate, error)
}

// Bus carries state-change notifications between server instances.
// Implemented by the redis event bus; may be nil for a single instance.
type Bus interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context, handler func(payload []byte)) error
}

// Event marks a state change that should surface in feeds ahead of the next
// scheduled tick.
type Event struct {
	Kind      string    `json:"kind"` // meeting_created, meeting_deleted, poll_created, poll_deleted, checkin, vote
	MeetingID uuid.UUID `json:"meeting_id"`
}

// Publisher is the process-scoped registry of feed subscribers. It owns every
// subscriber channel and closes all of them on Shutdown; no subscriber list
// outlives the server instance that created it.
type Publisher struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscriber

	source        Source
	bus           Bus
	log           *logger.Logger
	attendeeEvery time.Duration
	adminEvery    time.Duration

	notify chan Event
	done   chan struct{}
	once   sync.Once
}

func NewPublisher(source Source, bus Bus, log *logger.Logger, attendeeEvery, adminEvery time.Duration) *Publisher {
	return &Publisher{
		subs:          make(map[uuid.UUID]*Subscriber),
		source:        source,
		bus:           bus,
		log:           log,
		attendeeEvery: attendeeEvery,
		adminEvery:    adminEvery,
		notify:        make(chan Event, 64),
		done:          make(chan struct{}),
	}
}

// Run drives the emit loops until ctx is cancelled, then shuts the registry
// down. Attendee and admin feeds tick on independent cadences; a notify event
// flushes both immediately.
func (p *Publisher) Run(ctx context.Context) {
	if p.bus != nil {
		go func() {
			for {
				err := p.bus.Subscribe(ctx, func(payload []byte) {
					var ev Event
					if err := json.Unmarshal(payload, &ev); err != nil {
						return
					}
					p.enqueue(ev)
				})
				if ctx.Err() != nil {
					return
				}
				if err != nil && p.log != nil {
					p.log.Warnf("feed bus subscribe lost, retrying: %v", err)
				}
				time.Sleep(time.Second)
			}
		}()
	}

	attendeeTick := time.NewTicker(p.attendeeEvery)
	adminTick := time.NewTicker(p.adminEvery)
	defer attendeeTick.Stop()
	defer adminTick.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Shutdown()
			return
		case <-attendeeTick.C:
			p.emit(ctx, KindAttendee)
		case <-adminTick.C:
			p.emit(ctx, KindAdmin)
		case <-p.notify:
			p.emit(ctx, KindAttendee)
			p.emit(ctx, KindAdmin)
		}
	}
}

// Notify reports a state change. The event is applied locally and, when a bus
// is configured, broadcast to the other instances. Duplicate delivery is fine
// because snapshots are idempotent.
func (p *Publisher) Notify(ctx context.Context, ev Event) {
	p.enqueue(ev)
	if p.bus != nil {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		if err := p.bus.Publish(ctx, payload); err != nil && p.log != nil {
			p.log.Warnf("feed bus publish failed: %v", err)
		}
	}
}

func (p *Publisher) enqueue(ev Event) {
	select {
	case p.notify <- ev:
	default:
		// A flush is already pending; coalesce.
	}
}

// SubscribeAttendee registers a new attendee feed consumer. The credential
// map stays private to this subscriber.
func (p *Publisher) SubscribeAttendee(credentials map[uuid.UUID]string) *Subscriber {
	return p.add(newSubscriber(KindAttendee, credentials))
}

// SubscribeAdmin registers a new admin feed consumer. Admin authentication is
// the transport's responsibility.
func (p *Publisher) SubscribeAdmin() *Subscriber {
	return p.add(newSubscriber(KindAdmin, nil))
}

func (p *Publisher) add(sub *Subscriber) *Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		sub.setState(StateClosed)
		close(sub.ch)
		return sub
	default:
	}
	p.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Other
// subscribers and in-flight operations are unaffected.
func (p *Publisher) Unsubscribe(sub *Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subs[sub.ID]; !ok {
		return
	}
	delete(p.subs, sub.ID)
	sub.state.Store(int32(StateClosed))
	close(sub.ch)
}

// Shutdown closes every subscriber channel and refuses new subscriptions.
func (p *Publisher) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		close(p.done)
		for id, sub := range p.subs {
			sub.state.Store(int32(StateClosed))
			close(sub.ch)
			delete(p.subs, id)
		}
	})
}

// SubscriberCount returns the number of live subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

func (p *Publisher) emit(ctx context.Context, kind SubscriberKind) {
	p.mu.RLock()
	targets := make([]*Subscriber, 0, len(p.subs))
	for _, sub := range p.subs {
		if sub.Kind == kind {
			targets = append(targets, sub)
		}
	}
	p.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	now := time.Now().UTC()
	switch kind {
	case KindAdmin:
		// One snapshot fans out to every admin subscriber.
		meetings, err := p.source.AdminSnapshot(ctx)
		if err != nil {
			p.markError(targets, err)
			return
		}
		snap := Snapshot{At: now, Admin: meetings}
		p.mu.RLock()
		for _, sub := range targets {
			if _, ok := p.subs[sub.ID]; ok {
				sub.send(snap)
			}
		}
		p.mu.RUnlock()
	case KindAttendee:
		// Attendee snapshots are personalized per credential map, computed
		// outside the lock.
		for _, sub := range targets {
			meetings, err := p.source.AttendeeSnapshot(ctx, sub.Credentials)
			if err != nil {
				p.markError([]*Subscriber{sub}, err)
				continue
			}
			p.deliver(sub, Snapshot{At: now, Attendee: meetings})
		}
	}
}

// deliver sends a frame while holding the read lock. Unsubscribe and
// Shutdown close channels only under the write lock, so a subscriber still
// present in the registry here has an open channel. send never blocks.
func (p *Publisher) deliver(sub *Subscriber, snap Snapshot) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.subs[sub.ID]; !ok {
		return
	}
	sub.send(snap)
}

// markError flags subscribers for reconnection on a transient source
// failure. The subscription survives; the next successful emit returns it to
// STREAMING.
func (p *Publisher) markError(subs []*Subscriber, err error) {
	if p.log != nil {
		p.log.Warnf("feed snapshot failed: %v", err)
	}
	for _, sub := range subs {
		sub.setState(StateError)
		sub.setState(StateReconnecting)
	}
}
