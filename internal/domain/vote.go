package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote links a poll to a credential by id only. Nothing in the row can be
// traced back to a person beyond "some attendee of this meeting".
//
// The (PollID, CredentialID) pair is unique in storage; that constraint is
// the exactly-once guarantee for voting.
type Vote struct {
	ID           uuid.UUID
	PollID       uuid.UUID
	CredentialID uuid.UUID
	Choice       string
	VotedAt      time.Time
}
