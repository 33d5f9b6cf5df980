package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Client message types understood by MessageHandler
const (
	TypePing    = "ping"
	TypePong    = "pong"
	TypeRefresh = "refresh"
)

// MessageHandler answers control messages sent by clients
type MessageHandler struct {
	hub      *Hub
	snapshot SnapshotFunc
	msgType  string
	logger   zerolog.Logger
}

// NewMessageHandler creates a MessageHandler. A "refresh" request is answered
// with snapshot() sent as msgType.
func NewMessageHandler(hub *Hub, snapshot SnapshotFunc, msgType string, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		hub:      hub,
		snapshot: snapshot,
		msgType:  msgType,
		logger:   logger,
	}
}

// Start processes client messages until ctx is done
func (h *MessageHandler) Start(ctx context.Context) {
	messages := make(chan *Inbound, 64)
	h.hub.AddMessageListener(messages)

	go func() {
		defer h.hub.RemoveMessageListener(messages)
		for {
			select {
			case in := <-messages:
				h.handle(ctx, in)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *MessageHandler) handle(ctx context.Context, in *Inbound) {
	switch in.Message.Type {
	case TypePing:
		in.Client.Send(Message{Type: TypePong})
	case TypeRefresh:
		if h.snapshot == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		data, err := h.snapshot(ctx)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to load snapshot for refresh")
			return
		}
		in.Client.Send(Message{Type: h.msgType, Room: in.Client.room, Data: data})
	default:
		h.logger.Debug().Str("type", in.Message.Type).Msg("Ignoring unknown client message")
	}
}
