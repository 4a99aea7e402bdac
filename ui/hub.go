package ui

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
)

// Hub fans out state snapshots to every connected renderer. Writes are
// serialized per hub; a failed write drops the connection.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// Broadcast sends one state snapshot to all clients.
func (h *Hub) Broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(v); err != nil {
			logger.Debugf("Dropping websocket client: %v", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
