package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/repository"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// meetingCodeRetries bounds collision retries when minting a meeting code.
const meetingCodeRetries = 2

// MeetingService owns meeting lifecycle: admin-created, immutable except
// deletion, which cascades through polls, credentials, and votes.
type MeetingService struct {
	meetings repository.MeetingRepository
	notifier Notifier
	clock    func() time.Time
}

func NewMeetingService(meetings repository.MeetingRepository, notifier Notifier) *MeetingService {
	return &MeetingService{
		meetings: meetings,
		notifier: notifier,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MeetingService) WithClock(clock func() time.Time) *MeetingService {
	s.clock = clock
	return s
}

// Create schedules a meeting. The end time must follow the start and is
// clamped to the start's calendar day, matching how meetings are actually
// run: a session never rolls past midnight.
func (s *MeetingService) Create(ctx context.Context, start, end time.Time) (domain.Meeting, error) {
	if !end.After(start) {
		return domain.Meeting{}, quorum_errors.ErrInvalidInput
	}
	if end.YearDay() != start.YearDay() || end.Year() != start.Year() {
		end = time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 0, 0, start.Location())
	}

	for attempt := 0; attempt < meetingCodeRetries; attempt++ {
		meeting := domain.Meeting{
			ID:        uuid.New(),
			Code:      domain.NewMeetingCode(),
			StartTime: start,
			EndTime:   end,
			CreatedAt: s.clock(),
		}
		err := s.meetings.Create(ctx, &meeting)
		if err == nil {
			if s.notifier != nil {
				s.notifier.Notify(ctx, feed.Event{Kind: "meeting_created", MeetingID: meeting.ID})
			}
			return meeting, nil
		}
		if errors.Is(err, quorum_errors.ErrAlreadyExists) {
			continue
		}
		return domain.Meeting{}, err
	}
	return domain.Meeting{}, quorum_errors.ErrAlreadyExists
}

func (s *MeetingService) Get(ctx context.Context, id uuid.UUID) (domain.Meeting, error) {
	return s.meetings.GetByID(ctx, id)
}

func (s *MeetingService) List(ctx context.Context) ([]domain.Meeting, error) {
	return s.meetings.List(ctx)
}

// Delete removes the meeting; the schema cascades to its polls, credentials,
// and votes.
func (s *MeetingService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.meetings.Delete(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, feed.Event{Kind: "meeting_deleted", MeetingID: id})
	}
	return nil
}
