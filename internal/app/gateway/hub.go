package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/christmas-fire/courier/internal/models"
	"github.com/christmas-fire/courier/internal/service/notify"
	"github.com/redis/go-redis/v9"
)

// NotificationLister loads the notification backlog sent to a client after it
// authenticates.
type NotificationLister interface {
	Notifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
}

// Hub tracks live websocket clients and pushes notifications published on Redis
// to every connection of the recipient.
type Hub struct {
	clients       map[*Client]bool
	register      chan *Client
	unregister    chan *Client
	done          chan struct{}
	mu            sync.RWMutex
	redis         *redis.Client
	notifications NotificationLister
	log           *slog.Logger
}

func NewHub(redisClient *redis.Client, notifications NotificationLister, log *slog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		done:          make(chan struct{}),
		redis:         redisClient,
		notifications: notifications,
		log:           log,
	}
}

// Run serves registrations until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("client registered", "remote", client.Conn.RemoteAddr().String())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.log.Debug("client unregistered", "remote", client.Conn.RemoteAddr().String())
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			return
		}
	}
}

// SubscribeToNotifications blocks until ctx is cancelled, relaying every
// notification published by the dispatcher.
func (h *Hub) SubscribeToNotifications(ctx context.Context) {
	if h.redis == nil {
		return
	}

	pubsub := h.redis.Subscribe(ctx, notify.NotificationsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case redisMsg, ok := <-ch:
			if !ok {
				return
			}

			var n models.Notification
			if err := json.Unmarshal([]byte(redisMsg.Payload), &n); err != nil {
				h.log.Warn("failed to unmarshal notification from redis", "error", err)
				continue
			}

			frame, err := NewWsMessage(TypeNotification, n)
			if err != nil {
				h.log.Error("failed to create notification frame", "error", err)
				continue
			}
			h.deliver(n.UserID, frame)
		}
	}
}

// deliver queues frame on every authenticated connection of userID and returns how
// many connections accepted it.
func (h *Hub) deliver(userID int64, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients {
		if uid := client.UserID(); uid == 0 || uid != userID {
			continue
		}
		select {
		case client.send <- frame:
			delivered++
		default:
			h.log.Warn("client send channel full, dropping notification", "user_id", userID)
		}
	}
	return delivered
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
