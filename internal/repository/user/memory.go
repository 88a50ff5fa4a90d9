package user

import (
	"context"
	"sync"
	"time"

	"github.com/christmas-fire/courier/internal/models"
)

// OnDelete is called after a user is removed from the memory repository so that
// dependent stores can drop the records that reference it.
type OnDelete func(ctx context.Context, userID int64)

type memoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]models.User
	onDelete []OnDelete
}

func NewMemoryRepository(onDelete ...OnDelete) UserRepository {
	return &memoryRepository{
		users:    make(map[int64]models.User),
		onDelete: onDelete,
	}
}

func (r *memoryRepository) Create(_ context.Context, username string, isStaff bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.users[r.nextID] = models.User{
		ID:        r.nextID,
		Username:  username,
		IsStaff:   isStaff,
		CreatedAt: time.Now().UTC(),
	}
	return r.nextID, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	if _, ok := r.users[id]; !ok {
		r.mu.Unlock()
		return ErrUserNotFound
	}
	delete(r.users, id)
	r.mu.Unlock()

	for _, fn := range r.onDelete {
		fn(ctx, id)
	}
	return nil
}
