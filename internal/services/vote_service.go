package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/repository"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// VoteService is the vote ledger: one recorded choice per (poll, credential),
// enforced by the storage layer's unique constraint rather than a
// check-then-insert.
type VoteService struct {
	meetings    repository.MeetingRepository
	polls       repository.PollRepository
	votes       repository.VoteRepository
	credentials *CredentialService
	notifier    Notifier
	clock       func() time.Time
}

func NewVoteService(meetings repository.MeetingRepository, polls repository.PollRepository, votes repository.VoteRepository, credentials *CredentialService, notifier Notifier) *VoteService {
	return &VoteService{
		meetings:    meetings,
		polls:       polls,
		votes:       votes,
		credentials: credentials,
		notifier:    notifier,
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *VoteService) WithClock(clock func() time.Time) *VoteService {
	s.clock = clock
	return s
}

// CastVote records a choice for a poll. Returns ErrInvalidChoice,
// ErrNotFound (meeting or poll), ErrMeetingClosed, ErrInvalidCredential, or
// ErrAlreadyVoted. Concurrent duplicates race on the unique index and
// exactly one succeeds.
func (s *VoteService) CastVote(ctx context.Context, meetingID, pollID uuid.UUID, raw, choice string) error {
	choice = strings.ToUpper(strings.TrimSpace(choice))
	if !domain.ValidChoice(choice) {
		return quorum_errors.ErrInvalidChoice
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if !meeting.AvailableAt(s.clock()) {
		return quorum_errors.ErrMeetingClosed
	}

	poll, err := s.polls.GetByID(ctx, meetingID, pollID)
	if err != nil {
		return err
	}

	credentialID, ok, err := s.credentials.Verify(ctx, meetingID, raw)
	if err != nil {
		return err
	}
	if !ok {
		// Wrong meeting, malformed, or never issued. Recovered into a
		// caller-visible result, never a server fault.
		return quorum_errors.ErrInvalidCredential
	}

	vote := &domain.Vote{
		ID:           uuid.New(),
		PollID:       poll.ID,
		CredentialID: credentialID,
		Choice:       choice,
		VotedAt:      s.clock(),
	}
	if err := s.votes.Create(ctx, vote); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, feed.Event{Kind: "vote", MeetingID: meetingID})
	}
	return nil
}
