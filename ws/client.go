package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	// Three missed 30s heartbeats.
	pongWait = 90 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one UI session: ReadPump consumes heartbeats, WritePump drains
// send onto the socket.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	mu     sync.Mutex
}

// UserID returns the authenticated user of the session.
func (c *Client) UserID() string {
	return c.userID
}

// ReadPump blocks until the session closes, then unregisters it.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.hub.log.Debug("invalid message", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		switch event.Op {
		case OpHeartbeat:
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				return
			}
			c.Send(Event{Op: OpHeartbeatAck})
		default:
			c.hub.log.Debug("unknown op", zap.String("user_id", c.userID), zap.String("op", event.Op))
		}
	}
}

// Send queues one event for this session only.
func (c *Client) Send(event Event) {
	event.Seq = c.hub.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		c.hub.log.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	// send is closed once the session leaves the hub.
	if !c.hub.clients[c.userID][c] {
		return
	}

	select {
	case c.send <- data:
	default:
		go c.hub.drop(c)
	}
}

// WritePump writes queued events until the hub closes send.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, nil)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
