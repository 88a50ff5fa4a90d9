package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/christmas-fire/courier/internal/identity"
	"github.com/christmas-fire/courier/internal/models"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	pingPeriod     = (pongWait * 9) / 10
	pongWait       = 60 * time.Second
)

type Client struct {
	Conn   *websocket.Conn
	userID atomic.Int64
	hub    *Hub
	send   chan []byte
	// closed is guarded by hub.mu.
	closed bool
}

// UserID is zero until the connection authenticates.
func (c *Client) UserID() int64 {
	return c.userID.Load()
}

// Handler upgrades /ws requests. A connection whose handshake already carried a valid
// bearer token starts authenticated; others send an auth frame first.
func (h *Hub) Handler(jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWs(w, r, jwtSecret)
	})
}

func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, jwtSecret string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("failed to upgrade connection", "error", err)
		return
	}

	client := &Client{Conn: conn, hub: h, send: make(chan []byte, 256)}
	id := identity.FromContext(r.Context())
	if !id.Authenticated() {
		id, _ = identity.FromRequest(r, jwtSecret)
	}
	if id.Authenticated() {
		client.userID.Store(id.UserID)
	}

	if !h.add(client) {
		conn.Close()
		return
	}

	if id.Authenticated() {
		client.queue(TypeAuthStatus, AuthResponse{Success: true, Message: "Authentication successful"})
		client.sendBacklog(r.Context())
	}

	defer func() {
		h.remove(client)
		client.Conn.Close()
	}()

	go client.writePump()
	client.readPump(r.Context(), jwtSecret)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context, jwtSecret string) {
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("unexpected websocket close error", "error", err)
			}
			break
		}

		var msg WsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Debug("failed to unmarshal frame", "error", err)
			continue
		}

		if msg.Type == TypeAuth {
			c.handleAuth(ctx, msg.Payload, jwtSecret)
		}
	}
}

func (c *Client) handleAuth(ctx context.Context, payload []byte, jwtSecret string) {
	var authReq AuthRequest
	if err := json.Unmarshal(payload, &authReq); err != nil {
		c.hub.log.Debug("failed to unmarshal auth payload", "error", err)
		return
	}

	authResp := AuthResponse{Success: false, Message: "Invalid token"}
	id, err := identity.ParseToken(authReq.Token, jwtSecret)
	if err == nil {
		c.userID.Store(id.UserID)
		authResp = AuthResponse{Success: true, Message: "Authentication successful"}
		c.hub.log.Debug("client authenticated", "user_id", id.UserID)
	}

	c.queue(TypeAuthStatus, authResp)
	if authResp.Success {
		c.sendBacklog(ctx)
	}
}

func (c *Client) sendBacklog(ctx context.Context) {
	if c.hub.notifications == nil {
		return
	}
	unread, err := c.hub.notifications.Notifications(ctx, c.UserID(), true)
	if err != nil {
		c.hub.log.Error("failed to load unread notifications", "user_id", c.UserID(), "error", err)
		return
	}
	if unread == nil {
		unread = []models.Notification{}
	}
	c.queue(TypeUnreadNotifications, unread)
}

// closeSend must be called with hub.mu held for writing.
func (c *Client) closeSend() {
	c.closed = true
	close(c.send)
}

// queue hands a frame to the write pump unless the hub already dropped the client.
func (c *Client) queue(typ string, payload any) {
	frame, err := NewWsMessage(typ, payload)
	if err != nil {
		c.hub.log.Error("failed to create frame", "type", typ, "error", err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.hub.log.Warn("client send channel full, dropping frame", "type", typ)
	}
}
