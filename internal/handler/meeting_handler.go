package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
)

// MeetingHandler handles meeting CRUD and aggregate views.
type MeetingHandler struct {
	meetings   *services.MeetingService
	polls      *services.PollService
	aggregator *services.AggregatorService
	qrcodes    *services.QRCodeService
}

func NewMeetingHandler(meetings *services.MeetingService, polls *services.PollService, aggregator *services.AggregatorService, qrcodes *services.QRCodeService) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, polls: polls, aggregator: aggregator, qrcodes: qrcodes}
}

// ListAvailable handles GET /meetings: meetings currently open for check-in,
// without their codes.
func (h *MeetingHandler) ListAvailable(c *gin.Context) {
	snapshot, err := h.aggregator.AttendeeSnapshot(c.Request.Context(), nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(snapshot))
}

// PublicTallies handles GET /meetings/:id/tallies.
func (h *MeetingHandler) PublicTallies(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}
	agg, err := h.aggregator.PublicTallies(c.Request.Context(), meetingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(agg))
}

// CheckinQR handles GET /meetings/:id/qr, returning a PNG of the check-in
// URL.
func (h *MeetingHandler) CheckinQR(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}
	if _, err := h.meetings.Get(c.Request.Context(), meetingID); err != nil {
		writeError(c, err)
		return
	}

	png, err := h.qrcodes.GenerateCheckinQR(meetingID, 256)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// AdminList handles GET /admin/meetings: every meeting with codes, check-in
// counts, and full tallies.
func (h *MeetingHandler) AdminList(c *gin.Context) {
	snapshot, err := h.aggregator.AdminSnapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(snapshot))
}

// Create handles POST /admin/meetings.
func (h *MeetingHandler) Create(c *gin.Context) {
	var req httpdto.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	meeting, err := h.meetings.Create(c.Request.Context(), req.StartTime, req.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.MeetingDTO{
		ID:        meeting.ID.String(),
		Code:      meeting.Code,
		StartTime: meeting.StartTime,
		EndTime:   meeting.EndTime,
	}))
}

// Delete handles DELETE /admin/meetings/:id.
func (h *MeetingHandler) Delete(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}
	if err := h.meetings.Delete(c.Request.Context(), meetingID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreatePoll handles POST /admin/meetings/:id/polls.
func (h *MeetingHandler) CreatePoll(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	poll, err := h.polls.Create(c.Request.Context(), meetingID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.PollDTO{
		ID:        poll.ID.String(),
		MeetingID: poll.MeetingID.String(),
		Name:      poll.Name,
	}))
}

// DeletePoll handles DELETE /admin/meetings/:id/polls/:pollID.
func (h *MeetingHandler) DeletePoll(c *gin.Context) {
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
	if err := h.polls.Delete(c.Request.Context(), meetingID, pollID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
