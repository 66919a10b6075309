package signaling

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rozovalentina/musicnet-signaling-server/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; SDP bodies fit comfortably.
	maxMessageSize = 64 * 1024

	// Outbound buffer per connection. Emits beyond this are dropped.
	sendBuffer = 64
)

// Client wraps one websocket connection. Its ID is the transport-assigned
// connection identifier used everywhere in room state.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	log  *slog.Logger

	// send carries outbound envelopes to the write pump. Only the hub
	// loop writes to it and only the hub loop closes it.
	send chan *protocol.Envelope
}

// NewClient wraps an upgraded connection and assigns it an identifier.
func NewClient(hub *Hub, conn *websocket.Conn, log *slog.Logger) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		log:  log,
		send: make(chan *protocol.Envelope, sendBuffer),
	}
}

// ReadPump pumps messages from the websocket connection into the hub.
// It runs in a per-connection goroutine; all reads happen here. When the
// connection drops for any reason the client is unregistered, which runs
// the idempotent disconnect path.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read error", "conn", c.ID, "err", err)
			}
			break
		}
		select {
		case c.hub.Inbound <- &InboundMessage{Client: c, Envelope: &env}:
		case <-c.hub.Done():
			return
		}
	}
}

// WritePump pumps envelopes from the hub to the websocket connection and
// keeps the connection alive with pings. It runs in a per-connection
// goroutine; all writes happen here.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.log.Warn("write error", "conn", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
