package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
)

type MeetingRepository interface {
	Create(ctx context.Context, m *domain.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Meeting, error)
	List(ctx context.Context) ([]domain.Meeting, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PollRepository interface {
	Create(ctx context.Context, p *domain.Poll) error
	GetByID(ctx context.Context, meetingID, pollID uuid.UUID) (domain.Poll, error)
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]domain.Poll, error)
	Delete(ctx context.Context, meetingID, pollID uuid.UUID) error
}

type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) error
	GetByLookupKey(ctx context.Context, meetingID uuid.UUID, lookupKey string) (domain.Credential, error)
	CountByMeeting(ctx context.Context, meetingID uuid.UUID) (int, error)
	CountByMeetings(ctx context.Context, meetingIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type VoteRepository interface {
	// Create appends a vote. A duplicate (poll, credential) pair returns
	// quorum_errors.ErrAlreadyVoted.
	Create(ctx context.Context, v *domain.Vote) error
	CountByChoice(ctx context.Context, pollID uuid.UUID) (map[string]int, error)
	CountByChoiceBulk(ctx context.Context, pollIDs []uuid.UUID) (map[uuid.UUID]map[string]int, error)
	// ChoicesByCredential returns pollID -> choice for every vote this
	// credential cast in the meeting.
	ChoicesByCredential(ctx context.Context, meetingID, credentialID uuid.UUID) (map[uuid.UUID]string, error)
}
