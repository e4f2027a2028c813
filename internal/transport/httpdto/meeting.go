package httpdto

import "time"

type CreateMeetingRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type MeetingDTO struct {
	ID        string    `json:"id"`
	Code      string    `json:"meeting_code,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreatePollRequest struct {
	Name string `json:"name" binding:"required"`
}

type PollDTO struct {
	ID        string `json:"id"`
	MeetingID string `json:"meeting_id"`
	Name      string `json:"name"`
}
