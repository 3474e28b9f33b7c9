package activity

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// SessionResolver turns a bearer token into a session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*access.Session, error)
}

// Event is the frame pushed to feed clients.
type Event struct {
	Type     string    `json:"type"`
	Activity *Activity `json:"activity,omitempty"`
}

const EventActivity = "activity"

type WSHandler struct {
	hub      *Hub
	sessions SessionResolver
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewWSHandler creates the feed endpoint. An empty origins list accepts any origin.
func NewWSHandler(hub *Hub, sessions SessionResolver, origins []string, log logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Default()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:      hub,
		sessions: sessions,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Serve handles GET /ws/activities?token=JWT. Browsers cannot set headers on a
// websocket handshake, so the token travels in the query string.
// @Summary Activity stream
// @Description CEO only. Pushes each new activity as a JSON message
// @Tags Activities
// @Produce json
// @Param token query string true "Access token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /ws/activities [get]
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "token query parameter is required")
		return
	}
	sess, err := h.sessions.Resolve(c.Request.Context(), token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}
	if err := access.Require(sess, access.CapActivityView); err != nil {
		response.FromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("activity feed upgrade failed", "error", err)
		return
	}

	sub := h.hub.Subscribe()
	h.log.Info("activity feed connected", "profile_id", sess.ProfileID)

	go h.writePump(conn, sub)
	h.readPump(conn)

	sub.Close()
	h.log.Info("activity feed disconnected", "profile_id", sess.ProfileID)
}

// readPump discards client frames and returns when the peer goes away.
func (h *WSHandler) readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("activity feed read error", "error", err)
			}
			return
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, sub *Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case a, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(Event{Type: EventActivity, Activity: &a}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
