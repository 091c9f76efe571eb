package httpapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quantrun/quantrun/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The stream is broadcast-only telemetry; origin checks belong to the
	// fronting proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans completed decisions out to websocket subscribers. Slow or dead
// subscribers are dropped on write failure; the engine never blocks on the
// stream.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// HandleSubscribe upgrades the request and registers the connection.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("decision stream subscriber added")
}

// Broadcast sends a decision to every subscriber.
func (h *Hub) Broadcast(d domain.Decision) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(d); err != nil {
			log.Debug().Err(err).Msg("dropping decision stream subscriber")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
