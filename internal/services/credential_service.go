package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/domain"
	"github.com/aarongarrett/quorum/internal/repository"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// CredentialService is the credential store: it mints anonymous per-meeting
// voting credentials and verifies presented ones. Only the HMAC lookup key
// and the argon2id hash are persisted; the raw secret exists in one HTTP
// response and the attendee's device.
type CredentialService struct {
	meetings    repository.MeetingRepository
	credentials repository.CredentialRepository
	pepper      []byte
	clock       func() time.Time
}

func NewCredentialService(meetings repository.MeetingRepository, credentials repository.CredentialRepository, pepper string) *CredentialService {
	return &CredentialService{
		meetings:    meetings,
		credentials: credentials,
		pepper:      []byte(pepper),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the wall-clock source, for tests and for callers that
// inject their own time collaborator.
func (s *CredentialService) WithClock(clock func() time.Time) *CredentialService {
	s.clock = clock
	return s
}

// Issue mints a new credential for an open meeting and returns the raw
// secret. The stored row is also the attendance record.
func (s *CredentialService) Issue(ctx context.Context, meetingID uuid.UUID) (string, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return "", err
	}
	if !meeting.AvailableAt(s.clock()) {
		return "", quorum_errors.ErrMeetingClosed
	}

	raw, err := NewRawCredential()
	if err != nil {
		return "", err
	}
	hash, err := HashSecret(raw)
	if err != nil {
		return "", err
	}

	cred := &domain.Credential{
		ID:        uuid.New(),
		MeetingID: meetingID,
		LookupKey: LookupKey(s.pepper, raw),
		Hash:      hash,
		IssuedAt:  s.clock(),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		// A lookup-key collision means the same 256-bit secret was drawn
		// twice; retry once rather than failing the check-in.
		if errors.Is(err, quorum_errors.ErrAlreadyExists) {
			return s.Issue(ctx, meetingID)
		}
		return "", err
	}
	return raw, nil
}

// Verify resolves a raw credential to its stored id. A credential that does
// not match is an expected outcome, not a fault: ok is false and err is nil.
func (s *CredentialService) Verify(ctx context.Context, meetingID uuid.UUID, raw string) (uuid.UUID, bool, error) {
	if raw == "" {
		return uuid.Nil, false, nil
	}
	cred, err := s.credentials.GetByLookupKey(ctx, meetingID, LookupKey(s.pepper, raw))
	if err != nil {
		if errors.Is(err, quorum_errors.ErrNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	if !VerifySecret(raw, cred.Hash) {
		return uuid.Nil, false, nil
	}
	return cred.ID, true, nil
}
