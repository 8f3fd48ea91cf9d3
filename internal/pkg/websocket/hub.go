package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models"
)

// broadcastBuffer bounds the events waiting for the hub loop
const broadcastBuffer = 256

// Hub maintains the set of active clients and fans committed changes out
// to the ones whose filter matches
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Committed changes waiting to be sent
	broadcast chan models.ChangeEvent

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.ChangeEvent, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "change-feed").Logger(),
	}
}

// Run handles registrations and broadcasts until ctx is cancelled. Open
// connections are closed on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Publish queues event for delivery. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(event models.ChangeEvent) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Str("entity", event.Entity).Str("kind", string(event.Kind)).Msg("Change feed queue is full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	h.logger.Info().
		Int64("studentId", client.filter.StudentID).
		Int64("courseId", client.filter.CourseID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug().Str("addr", client.conn.RemoteAddr().String()).Msg("Client unregistered")
	}
}

func (h *Hub) broadcastEvent(event models.ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal change event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !event.Touches(client.filter.StudentID, client.filter.CourseID) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer
			delete(h.clients, client)
			close(client.send)
			h.logger.Warn().Str("addr", client.conn.RemoteAddr().String()).Msg("Client send buffer full, disconnecting")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
