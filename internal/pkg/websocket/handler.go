package websocket

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// ErrHubClosed is returned by Serve once the hub has stopped
var ErrHubClosed = errors.New("change feed is not running")

// Handler upgrades HTTP requests into change feed subscriptions
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a handler for hub. Browser origins must appear in
// allowedOrigins unless it contains "*".
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Serve upgrades the connection and registers a client with filter. When
// the upgrade fails the upgrader has already written the HTTP error.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, filter Filter) error {
	select {
	case <-h.hub.done:
		return ErrHubClosed
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		filter: filter,
		logger: h.hub.logger.With().Str("addr", conn.RemoteAddr().String()).Logger(),
	}
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return ErrHubClosed
	}

	go client.writePump()
	go client.readPump()
	return nil
}
