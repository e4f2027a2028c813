package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aarongarrett/quorum/internal/services"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
	"github.com/aarongarrett/quorum/pkg/logger"
)

// CheckinHandler handles attendee check-in endpoints.
type CheckinHandler struct {
	service *services.CheckinService
}

func NewCheckinHandler(service *services.CheckinService) *CheckinHandler {
	return &CheckinHandler{service: service}
}

// CheckIn handles POST /meetings/:id/checkin.
func (h *CheckinHandler) CheckIn(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid meeting id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	// Tag the request context so feed and error logs correlate by meeting.
	ctx := context.WithValue(c.Request.Context(), logger.MeetingIdKey, meetingID.String())

	credential, reused, err := h.service.CheckIn(ctx, meetingID, req.Code, req.Credential)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CheckinResponse{
		Credential: credential,
		Reused:     reused,
	}))
}
