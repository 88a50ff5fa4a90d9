package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/christmas-fire/courier/internal/mocks"
	"github.com/christmas-fire/courier/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatcher_AfterCreate(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	t.Run("should notify the receiver once", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepository(ctrl)
		d := NewDispatcher(repo, nil, log)

		repo.EXPECT().
			Create(gomock.Any(), &models.Notification{UserID: 2, MessageID: "m-1"}).
			Return(nil).
			Times(1)

		err := d.AfterCreate(context.Background(), &models.Message{ID: "m-1", SenderID: 1, ReceiverID: 2})

		req.NoError(err)
	})

	t.Run("should not notify on a message to oneself", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepository(ctrl)
		d := NewDispatcher(repo, nil, log)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		err := d.AfterCreate(context.Background(), &models.Message{ID: "m-1", SenderID: 1, ReceiverID: 1})

		req.NoError(err)
	})

	t.Run("should surface store failures", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepository(ctrl)
		d := NewDispatcher(repo, nil, log)
		boom := errors.New("store down")

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)

		err := d.AfterCreate(context.Background(), &models.Message{ID: "m-1", SenderID: 1, ReceiverID: 2})

		req.ErrorIs(err, boom)
	})

	t.Run("should publish the stored notification on redis", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepository(ctrl)

		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		defer client.Close()

		ctx := context.Background()
		sub := client.Subscribe(ctx, NotificationsChannel)
		defer sub.Close()
		_, err := sub.Receive(ctx)
		req.NoError(err)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n *models.Notification) error {
				n.ID = 9
				return nil
			})

		d := NewDispatcher(repo, client, log)
		req.NoError(d.AfterCreate(ctx, &models.Message{ID: "m-1", SenderID: 1, ReceiverID: 2}))

		select {
		case msg := <-sub.Channel():
			var n models.Notification
			req.NoError(json.Unmarshal([]byte(msg.Payload), &n))
			req.Equal(int64(9), n.ID)
			req.Equal(int64(2), n.UserID)
			req.Equal("m-1", n.MessageID)
		case <-time.After(2 * time.Second):
			t.Fatal("notification was not published")
		}
	})

	t.Run("should keep the notification when publishing fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockNotificationRepository(ctrl)

		srv := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
		defer client.Close()
		srv.Close()

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		d := NewDispatcher(repo, client, log)
		err := d.AfterCreate(context.Background(), &models.Message{ID: "m-1", SenderID: 1, ReceiverID: 2})

		req.NoError(err)
	})
}
