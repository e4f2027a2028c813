package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoteOptions is the fixed set of choices every poll accepts, displayed as
// lettered options A through H.
const VoteOptions = "ABCDEFGH"

// Poll is a single question voted on within a meeting.
type Poll struct {
	ID        uuid.UUID
	MeetingID uuid.UUID
	Name      string
	CreatedAt time.Time
}

// ValidChoice reports whether choice is one of the allowed vote options.
func ValidChoice(choice string) bool {
	if len(choice) != 1 {
		return false
	}
	c := choice[0]
	return c >= 'A' && c <= VoteOptions[len(VoteOptions)-1]
}

// ZeroCounts returns a tally map with every option initialized to zero, so
// clients always see the full option range.
func ZeroCounts() map[string]int {
	counts := make(map[string]int, len(VoteOptions))
	for _, c := range VoteOptions {
		counts[string(c)] = 0
	}
	return counts
}
