package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// SnapshotFunc returns the current state pushed to a client on connect
type SnapshotFunc func(ctx context.Context) (any, error)

// Handler upgrades HTTP requests and attaches clients to a room
type Handler struct {
	hub      *Hub
	room     string
	msgType  string
	snapshot SnapshotFunc
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a handler for room. New clients immediately receive
// snapshot() as a message of msgType. allowedOrigins may contain "*".
func NewHandler(hub *Hub, room, msgType string, snapshot SnapshotFunc, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		room:     room,
		msgType:  msgType,
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		return origin == "" || set[origin]
	}
}

// HandleConnection godoc
// @Summary Live landing page counters
// @Description Upgrades to a WebSocket that receives {"type":"counts"} messages whenever members, organizations, circles or karma change
// @Tags stats, websocket
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Router /ws/landing [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("room", h.room).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	userID := c.GetString("userID")
	client := newClient(h.hub, conn, h.room, userID, h.logger)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()

	if h.snapshot != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		data, err := h.snapshot(ctx)
		if err != nil {
			h.logger.Error().Err(err).Str("room", h.room).Msg("Failed to load initial snapshot")
			return
		}
		client.Send(Message{Type: h.msgType, Room: h.room, Data: data})
	}
}
