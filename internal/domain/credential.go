package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the persisted record of an issued check-in credential.
// Only derived values are stored: LookupKey is a keyed hash used for O(1)
// retrieval, Hash is the memory-hard verification hash. The raw secret is
// handed to the attendee exactly once and never written anywhere.
//
// The row doubles as the attendance record for its meeting; IssuedAt is the
// check-in timestamp.
type Credential struct {
	ID        uuid.UUID
	MeetingID uuid.UUID
	LookupKey string
	Hash      string
	IssuedAt  time.Time
}
