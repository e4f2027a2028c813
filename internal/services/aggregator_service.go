package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/repository"
)

// AggregatorService computes tallies and per-voter status on demand. All
// reads; consistency is whatever the store committed at call time. It is
// also the snapshot source for the live feed publisher.
type AggregatorService struct {
	meetings    repository.MeetingRepository
	polls       repository.PollRepository
	votes       repository.VoteRepository
	creds       repository.CredentialRepository
	credentials *CredentialService
	clock       func() time.Time
}

func NewAggregatorService(meetings repository.MeetingRepository, polls repository.PollRepository, votes repository.VoteRepository, creds repository.CredentialRepository, credentials *CredentialService) *AggregatorService {
	return &AggregatorService{
		meetings:    meetings,
		polls:       polls,
		votes:       votes,
		creds:       creds,
		credentials: credentials,
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *AggregatorService) WithClock(clock func() time.Time) *AggregatorService {
	s.clock = clock
	return s
}

// Tally counts votes grouped by choice for one poll.
func (s *AggregatorService) Tally(ctx context.Context, meetingID, pollID uuid.UUID) (feed.PollTally, error) {
	poll, err := s.polls.GetByID(ctx, meetingID, pollID)
	if err != nil {
		return feed.PollTally{}, err
	}
	counts, err := s.votes.CountByChoice(ctx, pollID)
	if err != nil {
		return feed.PollTally{}, err
	}
	return feed.PollTally{
		PollID: poll.ID,
		Name:   poll.Name,
		Counts: counts,
		Total:  sumCounts(counts),
	}, nil
}

// SelfStatus reports, for the holder of raw, whether it is checked in and
// what it voted per poll. This is the only read path that maps a credential
// back to votes, and only to its own.
type SelfStatus struct {
	CheckedIn bool
	Votes     map[uuid.UUID]*string // pollID -> choice, nil when not voted
}

func (s *AggregatorService) SelfStatus(ctx context.Context, meetingID uuid.UUID, raw string) (SelfStatus, error) {
	if _, err := s.meetings.GetByID(ctx, meetingID); err != nil {
		return SelfStatus{}, err
	}

	credentialID, ok, err := s.credentials.Verify(ctx, meetingID, raw)
	if err != nil {
		return SelfStatus{}, err
	}

	polls, err := s.polls.ListByMeeting(ctx, meetingID)
	if err != nil {
		return SelfStatus{}, err
	}

	status := SelfStatus{CheckedIn: ok, Votes: make(map[uuid.UUID]*string, len(polls))}
	for _, p := range polls {
		status.Votes[p.ID] = nil
	}
	if !ok {
		return status, nil
	}

	choices, err := s.votes.ChoicesByCredential(ctx, meetingID, credentialID)
	if err != nil {
		return SelfStatus{}, err
	}
	for pollID, choice := range choices {
		c := choice
		status.Votes[pollID] = &c
	}
	return status, nil
}

// PublicTallies returns the aggregate view of one meeting without its code.
func (s *AggregatorService) PublicTallies(ctx context.Context, meetingID uuid.UUID) (feed.MeetingAggregate, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return feed.MeetingAggregate{}, err
	}
	checkins, err := s.creds.CountByMeeting(ctx, meeting.ID)
	if err != nil {
		return feed.MeetingAggregate{}, err
	}
	agg, err := s.aggregate(ctx, meeting, checkins)
	if err != nil {
		return feed.MeetingAggregate{}, err
	}
	agg.Code = ""
	return agg, nil
}

// AdminSnapshot returns the full aggregate view of every meeting. Check-in
// counts come from one grouped query across all meetings.
func (s *AggregatorService) AdminSnapshot(ctx context.Context) ([]feed.MeetingAggregate, error) {
	meetings, err := s.meetings.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(meetings))
	for i, m := range meetings {
		ids[i] = m.ID
	}
	checkins, err := s.creds.CountByMeetings(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]feed.MeetingAggregate, 0, len(meetings))
	for _, m := range meetings {
		agg, err := s.aggregate(ctx, m, checkins[m.ID])
		if err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, nil
}

// AttendeeSnapshot returns currently available meetings, personalized with
// the subscriber's own credential per meeting. Credentials for other
// meetings, or invalid ones, simply yield checked_in=false.
func (s *AggregatorService) AttendeeSnapshot(ctx context.Context, credentials map[uuid.UUID]string) ([]feed.AttendeeMeeting, error) {
	meetings, err := s.meetings.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock()

	result := make([]feed.AttendeeMeeting, 0, len(meetings))
	for _, m := range meetings {
		if !m.AvailableAt(now) {
			continue
		}

		am := feed.AttendeeMeeting{
			MeetingID: m.ID,
			StartTime: m.StartTime,
			EndTime:   m.EndTime,
		}

		status := SelfStatus{Votes: map[uuid.UUID]*string{}}
		if raw, ok := credentials[m.ID]; ok {
			status, err = s.SelfStatus(ctx, m.ID, raw)
			if err != nil {
				return nil, err
			}
		}
		am.CheckedIn = status.CheckedIn

		polls, err := s.polls.ListByMeeting(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		tallies, err := s.pollTallies(ctx, polls)
		if err != nil {
			return nil, err
		}
		for _, t := range tallies {
			ap := feed.AttendeePoll{
				PollID: t.PollID,
				Name:   t.Name,
				Counts: t.Counts,
				Total:  t.Total,
			}
			if choice, ok := status.Votes[t.PollID]; ok {
				ap.OwnChoice = choice
			}
			am.Polls = append(am.Polls, ap)
		}
		result = append(result, am)
	}
	return result, nil
}

func (s *AggregatorService) aggregate(ctx context.Context, m domain.Meeting, checkins int) (feed.MeetingAggregate, error) {
	polls, err := s.polls.ListByMeeting(ctx, m.ID)
	if err != nil {
		return feed.MeetingAggregate{}, err
	}
	tallies, err := s.pollTallies(ctx, polls)
	if err != nil {
		return feed.MeetingAggregate{}, err
	}
	return feed.MeetingAggregate{
		MeetingID:    m.ID,
		Code:         m.Code,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		CheckinCount: checkins,
		Polls:        tallies,
	}, nil
}

// pollTallies resolves counts for a poll set with one grouped query.
func (s *AggregatorService) pollTallies(ctx context.Context, polls []domain.Poll) ([]feed.PollTally, error) {
	ids := make([]uuid.UUID, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}
	bulk, err := s.votes.CountByChoiceBulk(ctx, ids)
	if err != nil {
		return nil, err
	}

	tallies := make([]feed.PollTally, 0, len(polls))
	for _, p := range polls {
		counts, ok := bulk[p.ID]
		if !ok {
			counts = domain.ZeroCounts()
		}
		tallies = append(tallies, feed.PollTally{
			PollID: p.ID,
			Name:   p.Name,
			Counts: counts,
			Total:  sumCounts(counts),
		})
	}
	return tallies, nil
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
