package message

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/christmas-fire/courier/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps messages and their history in process memory. Updates are
// serialized by a single lock held across the interceptors, which gives the same
// one-history-row-per-transition guarantee as the row lock in Postgres.
type MemoryRepository struct {
	mu        sync.Mutex
	hooks     Hooks
	messages  map[string]models.Message
	history   map[string][]models.MessageHistory
	historyID int64
	now       func() time.Time
}

func NewMemoryRepository(hooks Hooks) *MemoryRepository {
	return &MemoryRepository{
		hooks:    hooks,
		messages: make(map[string]models.Message),
		history:  make(map[string][]models.MessageHistory),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func cloneMessage(m models.Message) models.Message {
	if m.EditedAt != nil {
		t := *m.EditedAt
		m.EditedAt = &t
	}
	if m.EditedBy != nil {
		id := *m.EditedBy
		m.EditedBy = &id
	}
	if m.ParentID != nil {
		p := *m.ParentID
		m.ParentID = &p
	}
	return m
}

func (r *MemoryRepository) Create(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = r.now()
	msg.Edited = false
	msg.EditedAt = nil
	msg.EditedBy = nil
	r.messages[msg.ID] = cloneMessage(*msg)
	r.mu.Unlock()

	return notifyCreated(ctx, r.hooks.AfterCreate, msg)
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	m = cloneMessage(m)
	return &m, nil
}

func (r *MemoryRepository) Update(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var old *models.Message
	if stored, ok := r.messages[msg.ID]; ok {
		s := cloneMessage(stored)
		old = &s
	}

	w := &pendingHistory{repo: r}
	for _, interceptor := range r.hooks.BeforeUpdate {
		if err := interceptor.BeforeUpdate(ctx, w, old, msg); err != nil {
			return err
		}
	}

	if old == nil {
		return ErrMessageNotFound
	}

	updated := *old
	updated.Content = msg.Content
	updated.Edited = msg.Edited
	updated.EditedAt = msg.EditedAt
	updated.EditedBy = msg.EditedBy
	r.messages[msg.ID] = cloneMessage(updated)

	for i, h := range w.rows {
		r.historyID++
		h.ID = r.historyID
		w.written[i].ID = h.ID
		r.history[h.MessageID] = append(r.history[h.MessageID], h)
	}

	msg.SenderID, msg.ReceiverID = old.SenderID, old.ReceiverID
	msg.CreatedAt, msg.ParentID = old.CreatedAt, old.ParentID
	return nil
}

func (r *MemoryRepository) Filter(_ context.Context, f Filter) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Message
	for _, m := range r.messages {
		if f.SenderID != 0 && m.SenderID != f.SenderID {
			continue
		}
		if f.ReceiverID != 0 && m.ReceiverID != f.ReceiverID {
			continue
		}
		if f.Between != [2]int64{} {
			a, b := f.Between[0], f.Between[1]
			if !(m.SenderID == a && m.ReceiverID == b) && !(m.SenderID == b && m.ReceiverID == a) {
				continue
			}
		}
		if f.ParentID != "" && (m.ParentID == nil || *m.ParentID != f.ParentID) {
			continue
		}
		if f.Edited != nil && m.Edited != *f.Edited {
			continue
		}
		out = append(out, cloneMessage(m))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) History(_ context.Context, messageID string) ([]models.MessageHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.history[messageID]
	out := make([]models.MessageHistory, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

// PurgeUser deletes every message the user sent or received, together with its
// history, and returns the deleted message ids. Replies to deleted messages lose
// their parent reference and history rows attributed to the user lose their editor.
func (r *MemoryRepository) PurgeUser(_ context.Context, userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted []string
	for id, m := range r.messages {
		if m.Involves(userID) {
			deleted = append(deleted, id)
			delete(r.messages, id)
			delete(r.history, id)
		}
	}

	gone := make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		gone[id] = struct{}{}
	}
	for id, m := range r.messages {
		changed := false
		if m.ParentID != nil {
			if _, ok := gone[*m.ParentID]; ok {
				m.ParentID = nil
				changed = true
			}
		}
		if m.EditedBy != nil && *m.EditedBy == userID {
			m.EditedBy = nil
			changed = true
		}
		if changed {
			r.messages[id] = m
		}
	}
	for id, rows := range r.history {
		for i := range rows {
			if rows[i].EditedBy != nil && *rows[i].EditedBy == userID {
				rows[i].EditedBy = nil
			}
		}
		r.history[id] = rows
	}
	return deleted
}

type pendingHistory struct {
	repo    *MemoryRepository
	rows    []models.MessageHistory
	written []*models.MessageHistory
}

func (p *pendingHistory) CreateHistory(_ context.Context, h *models.MessageHistory) error {
	if h.SavedAt.IsZero() {
		h.SavedAt = p.repo.now()
	}
	p.rows = append(p.rows, *h)
	p.written = append(p.written, h)
	return nil
}
