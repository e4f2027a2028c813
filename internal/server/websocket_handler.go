package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aarongarrett/quorum/internal/feed"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
	"github.com/aarongarrett/quorum/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketFeedHandler binds the live feed publisher to websocket
// connections, for clients that prefer a duplex transport over SSE.
type WebSocketFeedHandler struct {
	publisher *feed.Publisher
	log       *logger.Logger
}

func NewWebSocketFeedHandler(publisher *feed.Publisher, log *logger.Logger) *WebSocketFeedHandler {
	return &WebSocketFeedHandler{publisher: publisher, log: log}
}

// Attendee handles GET /ws/feed?tokens={...}.
func (h *WebSocketFeedHandler) Attendee(c *gin.Context) {
	credentials, err := httpdto.ParseTokenMap(c.Query("tokens"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid tokens parameter", "INVALID_REQUEST"))
		return
	}
	h.serve(c, h.publisher.SubscribeAttendee(credentials))
}

// Admin handles GET /admin/ws/feed. Admin auth is enforced by middleware.
func (h *WebSocketFeedHandler) Admin(c *gin.Context) {
	h.serve(c, h.publisher.SubscribeAdmin())
}

func (h *WebSocketFeedHandler) serve(c *gin.Context, sub *feed.Subscriber) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.publisher.Unsubscribe(sub)
		return
	}

	done := make(chan struct{})

	// Read pump: the client sends nothing meaningful, but reading is how
	// we learn it went away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go h.writeLoop(conn, sub, done)
}

func (h *WebSocketFeedHandler) writeLoop(conn *websocket.Conn, sub *feed.Subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.publisher.Unsubscribe(sub)
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if h.log != nil {
					h.log.Warnf("feed write failed: %v", err)
				}
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}
