package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
)

// FeedHandler binds the live feed publisher to Server-Sent Events. Browser
// EventSource clients reconnect on their own, so an interrupted stream lands
// back in STREAMING without server-side session state.
type FeedHandler struct {
	publisher *feed.Publisher
}

func NewFeedHandler(publisher *feed.Publisher) *FeedHandler {
	return &FeedHandler{publisher: publisher}
}

// Attendee handles GET /feed?tokens={...}: a stream of personalized
// aggregate snapshots. tokens is a JSON object of meetingID -> credential.
func (h *FeedHandler) Attendee(c *gin.Context) {
	credentials, err := httpdto.ParseTokenMap(c.Query("tokens"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid tokens parameter", "INVALID_REQUEST"))
		return
	}

	sub := h.publisher.SubscribeAttendee(credentials)
	defer h.publisher.Unsubscribe(sub)
	h.stream(c, sub)
}

// Admin handles GET /admin/feed. Admin auth is enforced by middleware.
func (h *FeedHandler) Admin(c *gin.Context) {
	sub := h.publisher.SubscribeAdmin()
	defer h.publisher.Unsubscribe(sub)
	h.stream(c, sub)
}

func (h *FeedHandler) stream(c *gin.Context, sub *feed.Subscriber) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		}
	})
}
