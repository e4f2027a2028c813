package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CheckinLeadTime is how long before the scheduled start attendees may
// already check in.
const CheckinLeadTime = 15 * time.Minute

// MeetingCodeLength is the length of the human-shareable meeting code.
const MeetingCodeLength = 8

// Meeting is a scheduled session attendees check into with a shared code.
type Meeting struct {
	ID        uuid.UUID
	Code      string
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
}

// AvailableAt reports whether the meeting accepts check-ins and votes at the
// given instant. The window opens CheckinLeadTime before the scheduled start
// and closes at the end time.
func (m Meeting) AvailableAt(now time.Time) bool {
	open := m.StartTime.Add(-CheckinLeadTime)
	return !now.Before(open) && !now.After(m.EndTime)
}

// CodeMatches compares a presented code against the meeting's code,
// case-insensitively.
func (m Meeting) CodeMatches(code string) bool {
	return strings.EqualFold(m.Code, code)
}

const (
	codeConsonants = "BCDFGHJKLMNPQRSTVWXYZ"
	codeVowels     = "AEIOU"
)

// NewMeetingCode generates a pronounceable meeting code by alternating
// consonants and vowels, so it can be read out loud at the front of a room.
func NewMeetingCode() string {
	var b strings.Builder
	for i := 0; i < MeetingCodeLength; i++ {
		alphabet := codeConsonants
		if i%2 == 1 {
			alphabet = codeVowels
		}
		b.WriteByte(alphabet[randIndex(len(alphabet))])
	}
	return b.String()
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
