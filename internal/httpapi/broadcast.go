package httpapi

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/user/streamwarden/internal/monitor"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster pushes each poll snapshot to every connected websocket
// client. New clients get the latest snapshot on connect.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	latest  func() *monitor.Snapshot
}

// NewBroadcaster creates a Broadcaster. latest supplies the snapshot sent
// to freshly connected clients; it may return nil before the first poll.
func NewBroadcaster(latest func() *monitor.Snapshot) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
		latest:  latest,
	}
}

// AddClient registers a connection and seeds it with the latest snapshot.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	if snap := b.latest(); snap != nil {
		data, _ := json.Marshal(snap)
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the snapshot
		}
	}

	return c
}

// RemoveClient unregisters a connection and stops its write pump.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Publish sends a snapshot to all connected clients. A client whose send
// buffer is full gets disconnected rather than stalling the rest.
func (b *Broadcaster) Publish(snap *monitor.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("snapshot marshal failed", "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// ClientCount reports the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
