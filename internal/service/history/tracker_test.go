package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/christmas-fire/courier/internal/identity"
	"github.com/christmas-fire/courier/internal/mocks"
	"github.com/christmas-fire/courier/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func stored() *models.Message {
	return &models.Message{ID: "m-1", SenderID: 1, ReceiverID: 2, Content: "hello"}
}

func TestEditTracker_BeforeUpdate(t *testing.T) {
	tracker := NewEditTracker(func() time.Time { return fixedNow })

	t.Run("should snapshot the stored content when the content changes", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		w := mocks.NewMockHistoryWriter(ctrl)
		ctx := identity.WithIdentity(context.Background(), identity.Identity{UserID: 1, Username: "alice"})

		var got *models.MessageHistory
		w.EXPECT().
			CreateHistory(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, h *models.MessageHistory) error {
				got = h
				return nil
			}).
			Times(1)

		incoming := stored()
		incoming.Content = "hello, world"

		err := tracker.BeforeUpdate(ctx, w, stored(), incoming)

		req.NoError(err)
		req.NotNil(got)
		req.Equal("m-1", got.MessageID)
		req.Equal("hello", got.Content)
		req.Equal(int64(1), *got.EditedBy)
		req.True(incoming.Edited)
		req.Equal(fixedNow, *incoming.EditedAt)
		req.Equal(int64(1), *incoming.EditedBy)
	})

	t.Run("should do nothing when the content is unchanged", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		w := mocks.NewMockHistoryWriter(ctrl)
		w.EXPECT().CreateHistory(gomock.Any(), gomock.Any()).Times(0)

		incoming := stored()
		err := tracker.BeforeUpdate(context.Background(), w, stored(), incoming)

		req.NoError(err)
		req.False(incoming.Edited)
		req.Nil(incoming.EditedAt)
	})

	t.Run("should keep the stored edit state over stale caller metadata", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		w := mocks.NewMockHistoryWriter(ctrl)
		w.EXPECT().CreateHistory(gomock.Any(), gomock.Any()).Times(0)

		editor := int64(1)
		old := stored()
		old.Edited = true
		old.EditedAt = &fixedNow
		old.EditedBy = &editor

		// Loaded before the concurrent edit that produced old.
		incoming := stored()

		err := tracker.BeforeUpdate(context.Background(), w, old, incoming)

		req.NoError(err)
		req.True(incoming.Edited)
		req.Equal(fixedNow, *incoming.EditedAt)
		req.Equal(int64(1), *incoming.EditedBy)
	})

	t.Run("should do nothing when there is no stored message", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		w := mocks.NewMockHistoryWriter(ctrl)
		w.EXPECT().CreateHistory(gomock.Any(), gomock.Any()).Times(0)

		incoming := stored()
		incoming.Content = "first"
		err := tracker.BeforeUpdate(context.Background(), w, nil, incoming)

		req.NoError(err)
		req.False(incoming.Edited)
	})

	t.Run("should attribute the snapshot to its author without an acting user", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		w := mocks.NewMockHistoryWriter(ctrl)

		previousEditor := int64(2)
		old := stored()
		old.Edited = true
		old.EditedBy = &previousEditor

		var got *models.MessageHistory
		w.EXPECT().CreateHistory(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, h *models.MessageHistory) error {
				got = h
				return nil
			})

		incoming := stored()
		incoming.Content = "changed"
		incoming.EditedBy = &previousEditor

		err := tracker.BeforeUpdate(context.Background(), w, old, incoming)

		req.NoError(err)
		req.Equal(int64(2), *got.EditedBy)
		req.True(incoming.Edited)
		req.Equal(int64(2), *incoming.EditedBy)
	})

	t.Run("should abort and leave the update untouched when the history write fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		w := mocks.NewMockHistoryWriter(ctrl)
		boom := errors.New("boom")
		w.EXPECT().CreateHistory(gomock.Any(), gomock.Any()).Return(boom)

		incoming := stored()
		incoming.Content = "changed"

		err := tracker.BeforeUpdate(context.Background(), w, stored(), incoming)

		req.ErrorIs(err, boom)
		req.False(incoming.Edited)
		req.Nil(incoming.EditedAt)
	})
}
