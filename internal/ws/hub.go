// Package ws streams LED status snapshots to websocket clients.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/begillespie/pilight/internal/events"
	"github.com/begillespie/pilight/internal/led"
)

const writeTimeout = 200 * time.Millisecond

// SnapshotFunc returns the current LED state. *led.Controller.Snapshot fits.
type SnapshotFunc func() led.Snapshot

type Hub struct {
	mu       sync.Mutex
	snapshot SnapshotFunc
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		snapshot: snapshot,
		clients:  map[*websocket.Conn]bool{},
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Attach broadcasts a snapshot on every controller event. The returned
// func unsubscribes.
func (h *Hub) Attach(bus *events.Bus) func() {
	unColor := bus.OnColor(func(events.ColorChanged) { h.Broadcast() })
	unStop := bus.OnStopped(func(events.DeviceStopped) { h.Broadcast() })
	return func() {
		unColor()
		unStop()
	}
}

// HandleWS upgrades the request and registers the client. The client gets
// the current snapshot right away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws upgrade")
		return
	}
	b, err := json.Marshal(h.snapshot())
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err = conn.WriteMessage(websocket.TextMessage, b)
	}
	if err != nil {
		conn.Close()
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the current snapshot to every client, dropping the ones
// that cannot keep up.
func (h *Hub) Broadcast() {
	b, err := json.Marshal(h.snapshot())
	if err != nil {
		log.Error().Err(err).Msg("marshal snapshot")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write snapshot")
			delete(h.clients, c)
			c.Close()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
