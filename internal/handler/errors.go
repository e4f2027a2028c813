// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aarongarrett/quorum/internal/transport/httpdto"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// writeError maps the error taxonomy onto HTTP. Anything unrecognized is a
// transient storage fault: surfaced as 503 and safe for the caller to retry,
// never swallowed into a false success.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quorum_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
	case errors.Is(err, quorum_errors.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting code", "INVALID_CODE"))
	case errors.Is(err, quorum_errors.ErrMeetingClosed):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("meeting is not available", "MEETING_CLOSED"))
	case errors.Is(err, quorum_errors.ErrInvalidChoice):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid vote choice", "INVALID_CHOICE"))
	case errors.Is(err, quorum_errors.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("invalid credential for this meeting", "INVALID_CREDENTIAL"))
	case errors.Is(err, quorum_errors.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("already voted in this poll", "ALREADY_VOTED"))
	case errors.Is(err, quorum_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("already exists", "CONFLICT"))
	case errors.Is(err, quorum_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid input", "INVALID_INPUT"))
	case errors.Is(err, quorum_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	case errors.Is(err, quorum_errors.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("service temporarily unavailable", "UNAVAILABLE"))
	default:
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("service temporarily unavailable", "UNAVAILABLE"))
	}
}
