package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/repository"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// Notifier surfaces state changes to the live feed publisher.
type Notifier interface {
	Notify(ctx context.Context, ev feed.Event)
}

// CheckinService validates meeting codes and issues or re-confirms voting
// credentials.
type CheckinService struct {
	meetings    repository.MeetingRepository
	credentials *CredentialService
	notifier    Notifier
	clock       func() time.Time
}

func NewCheckinService(meetings repository.MeetingRepository, credentials *CredentialService, notifier Notifier) *CheckinService {
	return &CheckinService{
		meetings:    meetings,
		credentials: credentials,
		notifier:    notifier,
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *CheckinService) WithClock(clock func() time.Time) *CheckinService {
	s.clock = clock
	return s
}

// CheckIn processes a check-in request. When existingRaw verifies for this
// meeting the same credential is returned with no new attendance record, so
// a device that lost its page state can re-confirm harmlessly. The
// verification happens before any write, which also makes concurrent
// re-confirmations of the same credential safe.
func (s *CheckinService) CheckIn(ctx context.Context, meetingID uuid.UUID, code, existingRaw string) (raw string, reused bool, err error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return "", false, err
	}
	if !meeting.CodeMatches(code) {
		return "", false, quorum_errors.ErrInvalidCode
	}
	if !meeting.AvailableAt(s.clock()) {
		return "", false, quorum_errors.ErrMeetingClosed
	}

	if existingRaw != "" {
		if _, ok, err := s.credentials.Verify(ctx, meetingID, existingRaw); err != nil {
			return "", false, err
		} else if ok {
			return existingRaw, true, nil
		}
	}

	raw, err = s.credentials.Issue(ctx, meetingID)
	if err != nil {
		return "", false, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, feed.Event{Kind: "checkin", MeetingID: meetingID})
	}
	return raw, false, nil
}
