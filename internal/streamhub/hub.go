// Package streamhub implements the Stream Hub (C7): a WebSocket broadcast
// point that sends every connected client the current projector snapshot on
// connect, and every subsequent snapshot as it is produced by the watcher.
package streamhub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 45 * time.Second
	pingInterval   = 20 * time.Second
	clientSendSize = 4 // only the latest snapshot matters; a deep queue just adds staleness
)

// Snapshot is the payload the watcher publishes after each re-derivation.
type Snapshot struct {
	Documents []Document `json:"documents"`
	Metadata  Metadata   `json:"metadata"`
}

// Document is the fixed projection shape emitted for each selected document.
type Document struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	FullContent string         `json:"fullContent"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	Type        string         `json:"type"`
	Timestamp   string         `json:"timestamp"`
	Metadata    map[string]any `json:"metadata"`
}

// Metadata describes the snapshot as a whole.
type Metadata struct {
	Total    int    `json:"total"`
	LastSync string `json:"lastSync"`
	Source   string `json:"source"`
}

// frame is the wire envelope sent to clients.
type frame struct {
	Type      string   `json:"type"`
	Data      Snapshot `json:"data,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// Hub tracks connected clients and the latest snapshot, so a newly connected
// client can be served an "initial" frame without waiting for the next
// watcher cycle.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  Snapshot
	hasData bool
}

// New constructs an empty Hub.
func New(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Publish stores snap as the latest snapshot and fans it out as a "sync"
// frame to every connected client. A slow client whose queue is full has
// its oldest queued frame dropped to make room for the newest one, rather
// than blocking the broadcast loop.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	h.latest = snap
	h.hasData = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	f := frame{Type: "sync", Data: snap, Timestamp: nowRFC3339()}
	data, err := json.Marshal(f)
	if err != nil {
		h.log.Warn("marshal sync frame", "error", err)
		return
	}
	for _, c := range clients {
		c.offerLatest(data)
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}
	h.register(c)
	defer h.remove(c)

	c.sendInitial()

	go c.writeLoop()
	c.readLoop()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// remove drops c from the broadcast set. Must never block: it is called
// from each client's own readLoop on any transport error.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		close(c.send)
	}
	_ = c.conn.Close()
}

func (h *Hub) snapshot() (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasData
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
