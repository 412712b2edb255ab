package websocket

import (
	"context"
	"sync"
	"time"

	"reelchat/internal/live"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a WebSocket client connection. Each subscribed
// conversation holds a live view owned by this connection; closing the
// connection closes every view.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu    sync.RWMutex // protects views map and conn writes
	views map[string]*live.View

	sendMu     sync.RWMutex
	sendClosed bool
}

func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		views:  make(map[string]*live.View),
	}
}

// AddView records the open view for a conversation, closing any previous
// one so a repeated subscribe frame does not leak.
func (c *Client) AddView(conversationID string, v *live.View) {
	c.mu.Lock()
	prev := c.views[conversationID]
	c.views[conversationID] = v
	c.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// RemoveView closes and forgets the view for a conversation.
func (c *Client) RemoveView(conversationID string) {
	c.mu.Lock()
	v := c.views[conversationID]
	delete(c.views, conversationID)
	c.mu.Unlock()
	if v != nil {
		v.Close()
	}
}

// HasView reports whether the client has the conversation open.
func (c *Client) HasView(conversationID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.views[conversationID]
	return ok
}

// CloseViews closes every live view the client holds.
func (c *Client) CloseViews() {
	c.mu.Lock()
	views := c.views
	c.views = make(map[string]*live.View)
	c.mu.Unlock()
	for _, v := range views {
		v.Close()
	}
}

// WriteLoop handles outbound messages from the Send channel.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.mu.Unlock()
		case <-ticker.C:
			c.mu.Lock()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = c.Conn.WriteMessage(websocket.PingMessage, []byte("ping"))
			c.mu.Unlock()
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}

// SendMessage queues a payload for the write loop without blocking. A
// delivery racing the disconnect is dropped once the channel is closed
// instead of panicking the process.
func (c *Client) SendMessage(msg []byte) {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return
	}
	select {
	case c.Send <- msg:
	default:
		// Channel full, message dropped; the next snapshot carries the
		// full state anyway.
	}
}

// CloseSend shuts the outbound channel so WriteLoop exits. Idempotent;
// SendMessage becomes a no-op afterwards.
func (c *Client) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.Send)
}
