package history

import (
	"context"
	"fmt"
	"time"

	"github.com/christmas-fire/courier/internal/identity"
	"github.com/christmas-fire/courier/internal/models"
	"github.com/christmas-fire/courier/internal/repository/message"
)

// EditTracker snapshots the stored content of a message into its history before a
// content-changing update is committed and stamps the edit metadata on the update.
type EditTracker struct {
	now func() time.Time
}

func NewEditTracker(now func() time.Time) *EditTracker {
	if now == nil {
		now = time.Now
	}
	return &EditTracker{now: now}
}

var _ message.UpdateInterceptor = (*EditTracker)(nil)

func (t *EditTracker) BeforeUpdate(ctx context.Context, w message.HistoryWriter, old, incoming *models.Message) error {
	// Nothing stored yet: history only records edits.
	if old == nil {
		return nil
	}
	// The caller may hold edit metadata older than the locked row.
	if old.Content == incoming.Content {
		keepEditState(old, incoming)
		return nil
	}

	editedAt := t.now().UTC()
	entry := &models.MessageHistory{
		MessageID: old.ID,
		Content:   old.Content,
		SavedAt:   editedAt,
		EditedBy:  snapshotAuthor(old),
	}

	var editor *int64
	if id := identity.FromContext(ctx); id.Authenticated() {
		userID := id.UserID
		editor = &userID
		entry.EditedBy = editor
	}

	if err := w.CreateHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record message history: %w", err)
	}

	incoming.Edited = true
	incoming.EditedAt = &editedAt
	if editor != nil {
		incoming.EditedBy = editor
	} else {
		incoming.EditedBy = copyID(old.EditedBy)
	}
	return nil
}

func keepEditState(old, incoming *models.Message) {
	incoming.Edited = old.Edited
	incoming.EditedAt = nil
	if old.EditedAt != nil {
		t := *old.EditedAt
		incoming.EditedAt = &t
	}
	incoming.EditedBy = copyID(old.EditedBy)
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// snapshotAuthor is whoever wrote the content being replaced.
func snapshotAuthor(old *models.Message) *int64 {
	if old.Edited && old.EditedBy != nil {
		return copyID(old.EditedBy)
	}
	id := old.SenderID
	return &id
}
