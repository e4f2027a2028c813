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

// PollService owns poll lifecycle under a meeting.
type PollService struct {
	meetings repository.MeetingRepository
	polls    repository.PollRepository
	notifier Notifier
	clock    func() time.Time
}

func NewPollService(meetings repository.MeetingRepository, polls repository.PollRepository, notifier Notifier) *PollService {
	return &PollService{
		meetings: meetings,
		polls:    polls,
		notifier: notifier,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *PollService) WithClock(clock func() time.Time) *PollService {
	s.clock = clock
	return s
}

// Create adds a poll to an existing meeting. Names must be non-empty and
// unique within the meeting.
func (s *PollService) Create(ctx context.Context, meetingID uuid.UUID, name string) (domain.Poll, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Poll{}, quorum_errors.ErrInvalidInput
	}
	if _, err := s.meetings.GetByID(ctx, meetingID); err != nil {
		return domain.Poll{}, err
	}

	poll := domain.Poll{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Name:      name,
		CreatedAt: s.clock(),
	}
	if err := s.polls.Create(ctx, &poll); err != nil {
		return domain.Poll{}, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, feed.Event{Kind: "poll_created", MeetingID: meetingID})
	}
	return poll, nil
}

// Delete removes a poll and, via cascade, its votes.
func (s *PollService) Delete(ctx context.Context, meetingID, pollID uuid.UUID) error {
	if err := s.polls.Delete(ctx, meetingID, pollID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, feed.Event{Kind: "poll_deleted", MeetingID: meetingID})
	}
	return nil
}
