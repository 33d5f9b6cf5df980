package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RoomLanding receives the public landing-page counters
const RoomLanding = "landing"

// Message represents a message sent over WebSocket
type Message struct {
	// Type of message, e.g. "counts", "refresh", "pong"
	Type string `json:"type"`

	// Room the message is delivered to; empty for direct replies
	Room string `json:"room,omitempty"`

	Data any `json:"data,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Inbound is a message read from a client
type Inbound struct {
	Client  *Client
	Message Message
}

// ConnectionObserver is told when clients join and leave rooms
type ConnectionObserver interface {
	WebsocketConnected(ctx context.Context, room string)
	WebsocketDisconnected(ctx context.Context, room string)
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients organized by room
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	// Messages read from clients, fanned out to listeners
	inbound chan *Inbound

	mu sync.RWMutex

	listenersMu sync.RWMutex
	listeners   []chan *Inbound

	observer ConnectionObserver
	logger   zerolog.Logger
}

// NewHub creates a new Hub instance. observer may be nil.
func NewHub(logger zerolog.Logger, observer ConnectionObserver) *Hub {
	return &Hub{
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Inbound, 64),
		clients:    make(map[string]map[*Client]bool),
		observer:   observer,
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case in := <-h.inbound:
			h.notifyListeners(in)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.room]; !ok {
		h.clients[client.room] = make(map[*Client]bool)
	}
	h.clients[client.room][client] = true

	if h.observer != nil {
		h.observer.WebsocketConnected(context.Background(), client.room)
	}

	h.logger.Debug().
		Str("room", client.room).
		Str("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client from its room. Caller holds h.mu.
func (h *Hub) removeLocked(client *Client) {
	room, ok := h.clients[client.room]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}

	delete(room, client)
	client.close()
	if len(room) == 0 {
		delete(h.clients, client.room)
	}

	if h.observer != nil {
		h.observer.WebsocketDisconnected(context.Background(), client.room)
	}

	h.logger.Debug().
		Str("room", client.room).
		Str("userID", client.userID).
		Msg("Client unregistered")
}

// broadcastMessage sends a message to all clients in its room. Clients whose
// buffer is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("room", message.Room).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[message.Room]
	for client := range clients {
		if !client.enqueue(data) {
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Str("room", message.Room).
		Int("clientCount", len(clients)).
		Msg("Message broadcasted to room")
}

func (h *Hub) notifyListeners(in *Inbound) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, listener := range h.listeners {
		select {
		case listener <- in:
		default:
			h.logger.Warn().Msg("Skipped slow message listener")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range h.clients {
		for client := range room {
			h.removeLocked(client)
		}
	}
}

// Broadcast queues data for every client in room
func (h *Hub) Broadcast(room, msgType string, data any) {
	h.broadcast <- &Message{
		Type:      msgType,
		Room:      room,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ClientCount returns the number of connected clients in room
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[room])
}

// AddMessageListener registers a channel to receive every client message
func (h *Hub) AddMessageListener(listener chan *Inbound) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, listener)
}

// RemoveMessageListener removes a listener from the hub
func (h *Hub) RemoveMessageListener(listener chan *Inbound) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()

	for i, l := range h.listeners {
		if l == listener {
			h.listeners[i] = h.listeners[len(h.listeners)-1]
			h.listeners = h.listeners[:len(h.listeners)-1]
			break
		}
	}
}
