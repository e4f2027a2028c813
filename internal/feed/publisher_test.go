package feed_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarongarrett/quorum/internal/feed"
)

// stubSource returns canned snapshots and records the credential maps it was
// asked to personalize for.
type stubSource struct {
	mu          sync.Mutex
	attendeeErr error
	adminErr    error
	credentials []map[uuid.UUID]string
}

func (s *stubSource) AttendeeSnapshot(ctx context.Context, credentials map[uuid.UUID]string) ([]feed.AttendeeMeeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attendeeErr != nil {
		return nil, s.attendeeErr
	}
	s.credentials = append(s.credentials, credentials)
	return []feed.AttendeeMeeting{{MeetingID: uuid.New()}}, nil
}

func (s *stubSource) AdminSnapshot(ctx context.Context) ([]feed.MeetingAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adminErr != nil {
		return nil, s.adminErr
	}
	return []feed.MeetingAggregate{{MeetingID: uuid.New(), Code: "BAZODEKU"}}, nil
}

func (s *stubSource) seenCredentials() []map[uuid.UUID]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[uuid.UUID]string, len(s.credentials))
	copy(out, s.credentials)
	return out
}

// memBus loops published payloads straight back to the handler, standing in
// for the redis channel.
type memBus struct {
	mu       sync.Mutex
	handlers []func([]byte)
}

func (b *memBus) Publish(ctx context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.handlers {
		h(payload)
	}
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, handler func([]byte)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func startPublisher(t *testing.T, source feed.Source, bus feed.Bus) *feed.Publisher {
	t.Helper()
	p := feed.NewPublisher(source, bus, nil, 20*time.Millisecond, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

func waitSnapshot(t *testing.T, sub *feed.Subscriber) feed.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "channel closed before a snapshot arrived")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return feed.Snapshot{}
	}
}

func TestPublisherEmitsOnCadence(t *testing.T) {
	source := &stubSource{}
	p := startPublisher(t, source, nil)

	attendee := p.SubscribeAttendee(map[uuid.UUID]string{uuid.New(): "raw-credential"})
	admin := p.SubscribeAdmin()

	snap := waitSnapshot(t, attendee)
	assert.NotEmpty(t, snap.Attendee)
	assert.Empty(t, snap.Admin)
	require.Eventually(t, func() bool {
		return attendee.State() == feed.StateStreaming
	}, time.Second, 5*time.Millisecond)

	snap = waitSnapshot(t, admin)
	assert.NotEmpty(t, snap.Admin)
	assert.Empty(t, snap.Attendee)

	// Attendee personalization happened with this subscriber's own map.
	seen := source.seenCredentials()
	require.NotEmpty(t, seen)
	assert.Len(t, seen[0], 1)
}

func TestPublisherNotifyFlushesImmediately(t *testing.T) {
	source := &stubSource{}
	p := feed.NewPublisher(source, nil, nil, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	admin := p.SubscribeAdmin()
	p.Notify(context.Background(), feed.Event{Kind: "vote", MeetingID: uuid.New()})

	// The hour-long tickers cannot have fired; only the notify path can
	// deliver this.
	snap := waitSnapshot(t, admin)
	assert.NotEmpty(t, snap.Admin)
}

func TestPublisherBusFanout(t *testing.T) {
	bus := &memBus{}
	source := &stubSource{}
	p := feed.NewPublisher(source, bus, nil, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	admin := p.SubscribeAdmin()

	// Wait for the bus subscription to register before publishing.
	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.handlers) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// An event arriving over the bus, as if from another instance, flushes
	// local subscribers.
	require.NoError(t, bus.Publish(context.Background(), []byte(`{"kind":"checkin","meeting_id":"`+uuid.NewString()+`"}`)))

	snap := waitSnapshot(t, admin)
	assert.NotEmpty(t, snap.Admin)
}

func TestPublisherUnsubscribeIsolation(t *testing.T) {
	source := &stubSource{}
	p := startPublisher(t, source, nil)

	first := p.SubscribeAdmin()
	second := p.SubscribeAdmin()
	require.Equal(t, 2, p.SubscriberCount())

	p.Unsubscribe(first)
	assert.Equal(t, feed.StateClosed, first.State())
	assert.Equal(t, 1, p.SubscriberCount())

	// The first subscriber's channel drains to closed; the second keeps
	// receiving.
	require.Eventually(t, func() bool {
		_, ok := <-first.Snapshots()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	snap := waitSnapshot(t, second)
	assert.NotEmpty(t, snap.Admin)

	// Unsubscribing twice is harmless.
	p.Unsubscribe(first)
}

func TestPublisherShutdownClosesEverything(t *testing.T) {
	source := &stubSource{}
	p := feed.NewPublisher(source, nil, nil, time.Hour, time.Hour)

	subs := []*feed.Subscriber{p.SubscribeAttendee(nil), p.SubscribeAdmin()}
	p.Shutdown()

	for _, sub := range subs {
		assert.Equal(t, feed.StateClosed, sub.State())
		require.Eventually(t, func() bool {
			_, ok := <-sub.Snapshots()
			return !ok
		}, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, 0, p.SubscriberCount())

	// Subscriptions after shutdown come back already closed.
	late := p.SubscribeAdmin()
	assert.Equal(t, feed.StateClosed, late.State())
	_, ok := <-late.Snapshots()
	assert.False(t, ok)

	// Shutdown is idempotent.
	p.Shutdown()
}

func TestPublisherSurvivesSubscriberChurn(t *testing.T) {
	source := &stubSource{}
	p := feed.NewPublisher(source, nil, nil, time.Microsecond, time.Microsecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Emits race against disconnects; a close landing between an emit's
	// target collection and its channel send must not take down Run.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(500 * time.Millisecond)
			for time.Now().Before(deadline) {
				admin := p.SubscribeAdmin()
				attendee := p.SubscribeAttendee(map[uuid.UUID]string{uuid.New(): "raw-credential"})
				p.Unsubscribe(admin)
				p.Unsubscribe(attendee)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, p.SubscriberCount())

	// The publisher is still alive and emitting.
	survivor := p.SubscribeAdmin()
	snap := waitSnapshot(t, survivor)
	assert.NotEmpty(t, snap.Admin)
}

func TestPublisherSourceErrorMarksReconnecting(t *testing.T) {
	source := &stubSource{adminErr: errors.New("db down")}
	p := startPublisher(t, source, nil)

	admin := p.SubscribeAdmin()

	// Ticks fail while the source errors; the subscriber is flagged for
	// reconnection but not dropped.
	require.Eventually(t, func() bool {
		return admin.State() == feed.StateReconnecting
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, p.SubscriberCount())

	// Source recovers; the subscription resumes streaming on its own.
	source.mu.Lock()
	source.adminErr = nil
	source.mu.Unlock()

	waitSnapshot(t, admin)
	require.Eventually(t, func() bool {
		return admin.State() == feed.StateStreaming
	}, time.Second, 5*time.Millisecond)
}
