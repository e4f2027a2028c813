package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/testutil"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

type voteFixture struct {
	meetings *testutil.MemMeetingRepository
	polls    *testutil.MemPollRepository
	votes    *testutil.MemVoteRepository
	creds    *testutil.MemCredentialRepository
	notifier *testutil.RecordingNotifier
	credSvc  *services.CredentialService
	svc      *services.VoteService
	now      time.Time

	meeting domain.Meeting
	poll    domain.Poll
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	f := &voteFixture{
		meetings: testutil.NewMemMeetingRepository(),
		polls:    testutil.NewMemPollRepository(),
		creds:    testutil.NewMemCredentialRepository(),
		notifier: &testutil.RecordingNotifier{},
		now:      now,
	}
	f.votes = testutil.NewMemVoteRepository(f.polls)
	f.credSvc = services.NewCredentialService(f.meetings, f.creds, testPepper).WithClock(fixedClock(now))
	f.svc = services.NewVoteService(f.meetings, f.polls, f.votes, f.credSvc, f.notifier).WithClock(fixedClock(now))

	f.meeting = seedMeeting(t, f.meetings, now.Add(-time.Hour), now.Add(time.Hour))
	f.poll = domain.Poll{ID: uuid.New(), MeetingID: f.meeting.ID, Name: "Budget approval"}
	require.NoError(t, f.polls.Create(context.Background(), &f.poll))
	return f
}

func (f *voteFixture) checkIn(t *testing.T) string {
	t.Helper()
	raw, err := f.credSvc.Issue(context.Background(), f.meeting.ID)
	require.NoError(t, err)
	return raw
}

func TestVoteService_CastVote(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	require.NoError(t, f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, "B"))

	counts, err := f.votes.CountByChoice(context.Background(), f.poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["B"])

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "vote", events[0].Kind)
}

func TestVoteService_ChoiceIsNormalized(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	require.NoError(t, f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, " c "))

	counts, err := f.votes.CountByChoice(context.Background(), f.poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["C"])
}

func TestVoteService_InvalidChoice(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	for _, choice := range []string{"", "I", "AB", "1", "?"} {
		err := f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, choice)
		assert.ErrorIs(t, err, quorum_errors.ErrInvalidChoice, "choice %q", choice)
	}
}

func TestVoteService_InvalidCredential(t *testing.T) {
	f := newVoteFixture(t)

	err := f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, "never-issued", "A")
	assert.ErrorIs(t, err, quorum_errors.ErrInvalidCredential)
	assert.Empty(t, f.notifier.Events())
}

func TestVoteService_UnknownPoll(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	err := f.svc.CastVote(context.Background(), f.meeting.ID, uuid.New(), raw, "A")
	assert.ErrorIs(t, err, quorum_errors.ErrNotFound)
}

func TestVoteService_MeetingClosed(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	f.svc.WithClock(fixedClock(f.meeting.EndTime.Add(time.Minute)))
	err := f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, "A")
	assert.ErrorIs(t, err, quorum_errors.ErrMeetingClosed)
}

func TestVoteService_DuplicateVote(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	require.NoError(t, f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, "A"))

	// Second vote on the same poll is rejected even with a different choice;
	// the first one stands.
	err := f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, "B")
	assert.ErrorIs(t, err, quorum_errors.ErrAlreadyVoted)

	counts, err := f.votes.CountByChoice(context.Background(), f.poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["A"])
	assert.Equal(t, 0, counts["B"])
}

func TestVoteService_ConcurrentDuplicatesExactlyOneWins(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, "A")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, quorum_errors.ErrAlreadyVoted)
		}
	}
	assert.Equal(t, 1, succeeded)

	counts, err := f.votes.CountByChoice(context.Background(), f.poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["A"])
}

func TestVoteService_IndependentPolls(t *testing.T) {
	f := newVoteFixture(t)
	raw := f.checkIn(t)

	second := domain.Poll{ID: uuid.New(), MeetingID: f.meeting.ID, Name: "Next venue"}
	require.NoError(t, f.polls.Create(context.Background(), &second))

	require.NoError(t, f.svc.CastVote(context.Background(), f.meeting.ID, f.poll.ID, raw, "A"))
	require.NoError(t, f.svc.CastVote(context.Background(), f.meeting.ID, second.ID, raw, "H"))

	choices, err := f.votes.ChoicesByCredential(context.Background(), f.meeting.ID, mustCredentialID(t, f, raw))
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{f.poll.ID: "A", second.ID: "H"}, choices)
}

func mustCredentialID(t *testing.T, f *voteFixture, raw string) uuid.UUID {
	t.Helper()
	id, ok, err := f.credSvc.Verify(context.Background(), f.meeting.ID, raw)
	require.NoError(t, err)
	require.True(t, ok)
	return id
}
