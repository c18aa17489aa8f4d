// Package ws broadcasts host events over websocket connections.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Event types pushed to connected hosts.
const (
	EventTrackEnqueued = "track-enqueued"
	EventArtistBanned  = "artist-banned"
	EventRepeatChanged = "repeat-changed"
)

// Event is one host-facing notification.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Hub maintains the set of connected clients and fans events out to them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new event hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			zlog.Debug().Str("client", client.id).Msg("event client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			zlog.Debug().Str("client", client.id).Msg("event client disconnected")

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// Slow consumer; drop it rather than block the hub
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish enqueues an event for broadcast. Events are dropped when the
// broadcast channel is full; the host can always re-read state over HTTP.
func (h *Hub) Publish(eventType string, data any) {
	event := Event{
		ID:   uuid.New().String(),
		Type: eventType,
		At:   time.Now(),
		Data: data,
	}

	select {
	case h.broadcast <- event:
	default:
		zlog.Warn().Str("type", eventType).Msg("event broadcast channel full, dropping")
	}
}
