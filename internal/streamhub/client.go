package streamhub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected Stream Hub subscriber. Writes happen only on
// writeLoop's goroutine; readLoop reads and queues replies on send, and
// when it returns, ServeHTTP calls hub.remove.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// sendInitial pushes the current snapshot (if any) as an "initial" frame
// before the client is handed off to its read/write loops.
func (c *client) sendInitial() {
	snap, ok := c.hub.snapshot()
	if !ok {
		snap = Snapshot{Documents: []Document{}, Metadata: Metadata{Total: 0, LastSync: nowRFC3339()}}
	}
	f := frame{Type: "initial", Data: snap, Timestamp: nowRFC3339()}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.offerLatest(data)
}

// offerLatest enqueues data for delivery, dropping the oldest queued frame
// first if the buffer is full so slow clients always converge on the
// freshest snapshot rather than stalling the publisher.
func (c *client) offerLatest(data []byte) {
	select {
	case c.send <- data:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop handles client-originated frames: ping/pong liveness and
// request_sync for an on-demand current snapshot. Any transport error
// removes the client from the broadcast set without blocking it.
func (c *client) readLoop() {
	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var in struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}

		switch in.Type {
		case "ping":
			c.replyType("pong")
		case "request_sync":
			snap, ok := c.hub.snapshot()
			if !ok {
				snap = Snapshot{Documents: []Document{}, Metadata: Metadata{Total: 0, LastSync: nowRFC3339()}}
			}
			f := frame{Type: "sync", Data: snap, Timestamp: nowRFC3339()}
			if out, err := json.Marshal(f); err == nil {
				c.offerLatest(out)
			}
		}
	}
}

func (c *client) replyType(typ string) {
	f := frame{Type: typ, Timestamp: nowRFC3339()}
	if out, err := json.Marshal(f); err == nil {
		c.offerLatest(out)
	}
}
