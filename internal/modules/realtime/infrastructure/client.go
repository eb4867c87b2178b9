package infrastructure

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ventasWs/internal/modules/realtime/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Client is one websocket connection held by the hub.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	id        string
	remote    string
	send      chan []byte
	readLimit int64
	commands  *CommandProcessor

	// groups is guarded by hub.mu.
	groups map[string]struct{}

	mu     sync.Mutex
	closed bool
}

// NewClient crea un cliente WebSocket con una cola de envío de buf mensajes.
func NewClient(hub *Hub, conn *websocket.Conn, id, remote string, buf int) *Client {
	if buf <= 0 {
		buf = 1
	}
	c := &Client{
		hub:       hub,
		conn:      conn,
		id:        strings.TrimSpace(id),
		remote:    remote,
		send:      make(chan []byte, buf),
		readLimit: 1 << 16,
		groups:    make(map[string]struct{}),
	}
	c.commands = NewCommandProcessor(hub)
	return c
}

func (c *Client) ID() string { return c.id }

// SetReadLimit bounds the size of a single client command frame.
func (c *Client) SetReadLimit(limit int64) {
	if limit > 0 {
		c.readLimit = limit
	}
}

// enqueue hands data to the write pump without blocking. It reports false when
// the client is closed or its queue is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// SendMessage queues a frame addressed to this client only.
func (c *Client) SendMessage(msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal error", slog.String("clientId", c.id), slog.Any("error", err))
		return
	}
	if !c.enqueue(data) {
		slog.Warn("websocket send buffer full", slog.String("clientId", c.id), slog.String("event", msg.Event))
		go c.hub.detach(c)
	}
}

func (c *Client) WritePump() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write error", slog.String("clientId", c.id), slog.Any("error", err))
				c.hub.detach(c)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Warn("websocket ping error", slog.String("clientId", c.id), slog.Any("error", err))
				c.hub.detach(c)
				return
			}
		}
	}
}

func (c *Client) ReadPump() {
	defer c.hub.detach(c)
	c.conn.SetReadLimit(c.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var cmd domain.Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read error", slog.String("clientId", c.id), slog.Any("error", err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.commands.Process(c, cmd)
	}
}
