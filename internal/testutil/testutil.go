// Package testutil provides in-memory repository implementations used by the
// service tests. They hold the same invariants as the Postgres repositories,
// including the unique (poll, credential) vote constraint enforced under a
// mutex so concurrent duplicate votes race the same way they do against the
// database index.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/feed"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// MemMeetingRepository is an in-memory MeetingRepository.
type MemMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[uuid.UUID]domain.Meeting
}

func NewMemMeetingRepository() *MemMeetingRepository {
	return &MemMeetingRepository{meetings: make(map[uuid.UUID]domain.Meeting)}
}

func (r *MemMeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.meetings {
		if existing.Code == m.Code {
			return quorum_errors.ErrAlreadyExists
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.meetings[m.ID] = *m
	return nil
}

func (r *MemMeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meetings[id]
	if !ok {
		return domain.Meeting{}, quorum_errors.ErrNotFound
	}
	return m, nil
}

func (r *MemMeetingRepository) List(ctx context.Context) ([]domain.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Meeting, 0, len(r.meetings))
	for _, m := range r.meetings {
		out = append(out, m)
	}
	return out, nil
}

func (r *MemMeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[id]; !ok {
		return quorum_errors.ErrNotFound
	}
	delete(r.meetings, id)
	return nil
}

// MemPollRepository is an in-memory PollRepository.
type MemPollRepository struct {
	mu    sync.RWMutex
	polls map[uuid.UUID]domain.Poll
}

func NewMemPollRepository() *MemPollRepository {
	return &MemPollRepository{polls: make(map[uuid.UUID]domain.Poll)}
}

func (r *MemPollRepository) Create(ctx context.Context, p *domain.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.polls {
		if existing.MeetingID == p.MeetingID && existing.Name == p.Name {
			return quorum_errors.ErrAlreadyExists
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.polls[p.ID] = *p
	return nil
}

func (r *MemPollRepository) GetByID(ctx context.Context, meetingID, pollID uuid.UUID) (domain.Poll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.polls[pollID]
	if !ok || p.MeetingID != meetingID {
		return domain.Poll{}, quorum_errors.ErrNotFound
	}
	return p, nil
}

func (r *MemPollRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]domain.Poll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Poll
	for _, p := range r.polls {
		if p.MeetingID == meetingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemPollRepository) Delete(ctx context.Context, meetingID, pollID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[pollID]
	if !ok || p.MeetingID != meetingID {
		return quorum_errors.ErrNotFound
	}
	delete(r.polls, pollID)
	return nil
}

// MemCredentialRepository is an in-memory CredentialRepository.
type MemCredentialRepository struct {
	mu          sync.RWMutex
	credentials map[uuid.UUID]domain.Credential
}

func NewMemCredentialRepository() *MemCredentialRepository {
	return &MemCredentialRepository{credentials: make(map[uuid.UUID]domain.Credential)}
}

func (r *MemCredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.credentials {
		if existing.LookupKey == c.LookupKey {
			return quorum_errors.ErrAlreadyExists
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now()
	}
	r.credentials[c.ID] = *c
	return nil
}

func (r *MemCredentialRepository) GetByLookupKey(ctx context.Context, meetingID uuid.UUID, lookupKey string) (domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.credentials {
		if c.MeetingID == meetingID && c.LookupKey == lookupKey {
			return c, nil
		}
	}
	return domain.Credential{}, quorum_errors.ErrNotFound
}

func (r *MemCredentialRepository) CountByMeeting(ctx context.Context, meetingID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, c := range r.credentials {
		if c.MeetingID == meetingID {
			count++
		}
	}
	return count, nil
}

func (r *MemCredentialRepository) CountByMeetings(ctx context.Context, meetingIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[uuid.UUID]int, len(meetingIDs))
	for _, id := range meetingIDs {
		counts[id] = 0
	}
	for _, c := range r.credentials {
		if _, ok := counts[c.MeetingID]; ok {
			counts[c.MeetingID]++
		}
	}
	return counts, nil
}

type voteKey struct {
	pollID       uuid.UUID
	credentialID uuid.UUID
}

// MemVoteRepository is an in-memory VoteRepository. Create checks and
// inserts under one lock, matching the atomicity of the unique index it
// stands in for.
type MemVoteRepository struct {
	mu    sync.RWMutex
	votes map[voteKey]domain.Vote
	polls *MemPollRepository
}

// NewMemVoteRepository wires the vote store to a poll store so tallies can
// resolve poll-to-meeting ownership.
func NewMemVoteRepository(polls *MemPollRepository) *MemVoteRepository {
	return &MemVoteRepository{votes: make(map[voteKey]domain.Vote), polls: polls}
}

func (r *MemVoteRepository) Create(ctx context.Context, v *domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := voteKey{pollID: v.PollID, credentialID: v.CredentialID}
	if _, ok := r.votes[key]; ok {
		return quorum_errors.ErrAlreadyVoted
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.VotedAt.IsZero() {
		v.VotedAt = time.Now()
	}
	r.votes[key] = *v
	return nil
}

func (r *MemVoteRepository) CountByChoice(ctx context.Context, pollID uuid.UUID) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := domain.ZeroCounts()
	for key, v := range r.votes {
		if key.pollID == pollID {
			counts[v.Choice]++
		}
	}
	return counts, nil
}

func (r *MemVoteRepository) CountByChoiceBulk(ctx context.Context, pollIDs []uuid.UUID) (map[uuid.UUID]map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]map[string]int, len(pollIDs))
	for _, id := range pollIDs {
		out[id] = domain.ZeroCounts()
	}
	for key, v := range r.votes {
		if counts, ok := out[key.pollID]; ok {
			counts[v.Choice]++
		}
	}
	return out, nil
}

func (r *MemVoteRepository) ChoicesByCredential(ctx context.Context, meetingID, credentialID uuid.UUID) (map[uuid.UUID]string, error) {
	polls, err := r.polls.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]string)
	for _, p := range polls {
		if v, ok := r.votes[voteKey{pollID: p.ID, credentialID: credentialID}]; ok {
			out[p.ID] = v.Choice
		}
	}
	return out, nil
}

// RecordingNotifier captures feed events so tests can assert what a service
// published.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []feed.Event
}

func (n *RecordingNotifier) Notify(ctx context.Context, ev feed.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *RecordingNotifier) Events() []feed.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]feed.Event, len(n.events))
	copy(out, n.events)
	return out
}
