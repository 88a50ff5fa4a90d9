package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/christmas-fire/courier/internal/models"
)

type MemoryRepository struct {
	mu            sync.RWMutex
	nextID        int64
	notifications map[int64]models.Notification
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notifications: make(map[int64]models.Notification)}
}

func (r *MemoryRepository) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	n.ID = r.nextID
	n.Read = false
	n.CreatedAt = time.Now().UTC()
	r.notifications[n.ID] = *n
	return nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *MemoryRepository) MarkRead(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	n.Read = true
	r.notifications[id] = n
	return nil
}

// Purge drops the notifications addressed to userID and those about any of messageIDs.
func (r *MemoryRepository) Purge(_ context.Context, userID int64, messageIDs []string) {
	gone := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		gone[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notifications {
		if _, ok := gone[n.MessageID]; ok || n.UserID == userID {
			delete(r.notifications, id)
		}
	}
}
