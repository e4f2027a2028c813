package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
)

// VoteHandler handles vote submission and self-status endpoints.
type VoteHandler struct {
	votes      *services.VoteService
	aggregator *services.AggregatorService
}

func NewVoteHandler(votes *services.VoteService, aggregator *services.AggregatorService) *VoteHandler {
	return &VoteHandler{votes: votes, aggregator: aggregator}
}

// CastVote handles POST /meetings/:id/polls/:pollID/vote.
func (h *VoteHandler) CastVote(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}
	pollID, err := uuid.Parse(c.Param("pollID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.votes.CastVote(c.Request.Context(), meetingID, pollID, req.Credential, req.Choice); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VoteResponse{Recorded: true}))
}

// SelfStatus handles POST /meetings/:id/status.
func (h *VoteHandler) SelfStatus(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.SelfStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	status, err := h.aggregator.SelfStatus(c.Request.Context(), meetingID, req.Credential)
	if err != nil {
		writeError(c, err)
		return
	}

	votes := make(map[string]*string, len(status.Votes))
	for pollID, choice := range status.Votes {
		votes[pollID.String()] = choice
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SelfStatusResponse{
		CheckedIn: status.CheckedIn,
		Votes:     votes,
	}))
}
