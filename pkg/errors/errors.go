package quorum_errors

import "errors"

// Common errors
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCode       = errors.New("invalid meeting code")
	ErrMeetingClosed     = errors.New("meeting is not available")
	ErrInvalidChoice     = errors.New("invalid vote choice")
	ErrInvalidCredential = errors.New("invalid credential for this meeting")
	ErrAlreadyVoted      = errors.New("already voted in this poll")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("storage unavailable")
)
