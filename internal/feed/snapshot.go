package feed

import (
	"time"

	"github.com/google/uuid"
)

// PollTally is the per-option count view of one poll. Counts always carry
// every option, zeros included.
type PollTally struct {
	PollID uuid.UUID      `json:"poll_id"`
	Name   string         `json:"name"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// MeetingAggregate is the admin-facing view of a meeting: full tallies and
// the check-in count. It contains no credential-derived data.
type MeetingAggregate struct {
	MeetingID    uuid.UUID   `json:"meeting_id"`
	Code         string      `json:"meeting_code,omitempty"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	CheckinCount int         `json:"checkins"`
	Polls        []PollTally `json:"polls"`
}

// AttendeePoll is a poll as one attendee sees it: public counts plus that
// attendee's own recorded choice, if any.
type AttendeePoll struct {
	PollID    uuid.UUID      `json:"poll_id"`
	Name      string         `json:"name"`
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
	OwnChoice *string        `json:"own_choice,omitempty"`
}

// AttendeeMeeting is an available meeting as one attendee sees it.
type AttendeeMeeting struct {
	MeetingID uuid.UUID      `json:"meeting_id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	CheckedIn bool           `json:"checked_in"`
	Polls     []AttendeePoll `json:"polls"`
}

// Snapshot is one frame pushed to a feed subscriber. Snapshots are
// idempotent: clients apply last-write-wins per identifier, so re-emitting
// identical state is harmless.
type Snapshot struct {
	At       time.Time          `json:"at"`
	Attendee []AttendeeMeeting  `json:"meetings,omitempty"`
	Admin    []MeetingAggregate `json:"admin_meetings,omitempty"`
}
