package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Controller is the part of engine.Runner a client drives.
type Controller interface {
	SetInput(a player.ActionState)
	Submit(cmd engine.Command) bool
}

// ClientOptions limits one connection.
type ClientOptions struct {
	SendBuffer           int
	MaxMessagesPerSecond int
}

// Client is one connected renderer.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	controller Controller
	opts       ClientOptions

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn, ctl Controller, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 8
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, opts.SendBuffer),
		controller: ctl,
		opts:       opts,
	}
}

// Register adds the client to the hub. It reports false when the hub has
// already stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// leave removes the client from the hub, if the hub is still running.
func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump pumps messages from the websocket connection to the runner.
func (c *Client) ReadPump() {
	defer func() {
		c.leave()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Err(err, "WebSocket read failed")
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		if !c.allow(time.Now()) {
			c.reply(NewMessage(MsgTypeError, "rate limit exceeded"))
			continue
		}

		msg, err := DecodeClientMessage(message)
		if err != nil {
			c.hub.logger.Warn("Rejected client message: " + err.Error())
			c.reply(NewMessage(MsgTypeError, err.Error()))
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgTypeInput:
		c.controller.SetInput(*msg.Input)
	case MsgTypeCommand:
		if !c.controller.Submit(*msg.Command) {
			c.hub.metrics.RecordCommandDropped()
			c.reply(NewMessage(MsgTypeError, "command queue full"))
		}
	}
}

// allow applies a one-second fixed window rate limit.
func (c *Client) allow(now time.Time) bool {
	if c.opts.MaxMessagesPerSecond <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	return c.windowCount <= c.opts.MaxMessagesPerSecond
}

// reply queues a message for this client only. It is dropped if the client
// is behind.
func (c *Client) reply(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.metrics.RecordWSError()
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

// ServeWS upgrades a request and attaches the connection to the hub.
func ServeWS(hub *Hub, ctl Controller, opts ClientOptions, maxClients int) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if maxClients > 0 && hub.ClientCount() >= maxClients {
			http.Error(w, "too many renderers", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.metrics.RecordWSError()
			hub.logger.Err(err, "WebSocket upgrade failed")
			return
		}
		client := NewClient(hub, conn, ctl, opts)
		if !client.Register() {
			conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}
}
