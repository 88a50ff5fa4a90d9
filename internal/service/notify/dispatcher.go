package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/christmas-fire/courier/internal/models"
	"github.com/christmas-fire/courier/internal/repository/message"
	"github.com/christmas-fire/courier/internal/repository/notification"
	"github.com/redis/go-redis/v9"
)

const (
	NotificationsChannel = "notifications"
)

// Dispatcher creates a notification for the receiver of every newly created message
// that was not sent to oneself, and fans it out to live connections over Redis.
type Dispatcher struct {
	repo  notification.NotificationRepository
	redis *redis.Client
	log   *slog.Logger
}

// NewDispatcher builds a dispatcher. redisClient may be nil, in which case
// notifications are only stored.
func NewDispatcher(repo notification.NotificationRepository, redisClient *redis.Client, log *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, redis: redisClient, log: log}
}

var _ message.CreateObserver = (*Dispatcher)(nil)

func (d *Dispatcher) AfterCreate(ctx context.Context, msg *models.Message) error {
	if msg.ReceiverID == msg.SenderID {
		return nil
	}

	n := &models.Notification{
		UserID:    msg.ReceiverID,
		MessageID: msg.ID,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification for message %s: %w", msg.ID, err)
	}

	d.publish(ctx, n)
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, n *models.Notification) {
	if d.redis == nil {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		d.log.Error("failed to marshal notification for redis", "error", err)
		return
	}

	if err := d.redis.Publish(ctx, NotificationsChannel, payload).Err(); err != nil {
		d.log.Warn("failed to publish notification to redis", "notification_id", n.ID, "error", err)
	}
}
