package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/christmas-fire/courier/internal/identity"
	"github.com/christmas-fire/courier/internal/mocks"
	"github.com/christmas-fire/courier/internal/models"
	"github.com/christmas-fire/courier/internal/repository/message"
	"github.com/christmas-fire/courier/internal/repository/notification"
	"github.com/christmas-fire/courier/internal/repository/user"
	"github.com/christmas-fire/courier/internal/service/history"
	"github.com/christmas-fire/courier/internal/service/notify"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	svc           *ChatService
	messages      *message.MemoryRepository
	notifications *notification.MemoryRepository
	users         user.UserRepository
	alice, bob    int64
	mallory       int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	req := require.New(t)
	ctx := context.Background()

	notifications := notification.NewMemoryRepository()
	messages := message.NewMemoryRepository(message.Hooks{
		BeforeUpdate: []message.UpdateInterceptor{history.NewEditTracker(nil)},
		AfterCreate:  []message.CreateObserver{notify.NewDispatcher(notifications, nil, slog.New(slog.DiscardHandler))},
	})
	users := user.NewMemoryRepository(func(ctx context.Context, id int64) {
		notifications.Purge(ctx, id, messages.PurgeUser(ctx, id))
	})

	f := &fixture{
		svc:           NewChatService(messages, notifications, users),
		messages:      messages,
		notifications: notifications,
		users:         users,
	}
	var err error
	f.alice, err = users.Create(ctx, "alice", false)
	req.NoError(err)
	f.bob, err = users.Create(ctx, "bob", false)
	req.NoError(err)
	f.mallory, err = users.Create(ctx, "mallory", false)
	req.NoError(err)
	return f
}

func as(userID int64) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: userID})
}

func TestChatService_SendMessage(t *testing.T) {
	t.Run("should store the message unedited and notify the receiver", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		ctx := as(f.alice)

		msg, err := f.svc.SendMessage(ctx, f.alice, f.bob, "hi bob", nil)
		req.NoError(err)

		stored, err := f.svc.GetMessage(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Equal("hi bob", stored.Content)
		req.False(stored.Edited)
		req.Nil(stored.EditedAt)

		hist, err := f.svc.History(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Empty(hist)

		notes, err := f.svc.Notifications(ctx, f.bob, true)
		req.NoError(err)
		req.Len(notes, 1)
		req.Equal(msg.ID, notes[0].MessageID)

		notes, err = f.svc.Notifications(ctx, f.alice, false)
		req.NoError(err)
		req.Empty(notes)
	})

	t.Run("should not notify a note to oneself", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		_, err := f.svc.SendMessage(as(f.alice), f.alice, f.alice, "reminder", nil)
		req.NoError(err)

		notes, err := f.svc.Notifications(context.Background(), f.alice, false)
		req.NoError(err)
		req.Empty(notes)
	})

	t.Run("should reject empty content and unknown receivers", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		_, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "   ", nil)
		req.ErrorIs(err, ErrEmptyContent)

		_, err = f.svc.SendMessage(as(f.alice), f.alice, 999, "hello?", nil)
		req.ErrorIs(err, ErrReceiverNotFound)
	})

	t.Run("should only allow replies to a conversation one takes part in", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		root, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "root", nil)
		req.NoError(err)

		_, err = f.svc.SendMessage(as(f.mallory), f.mallory, f.bob, "butting in", &root.ID)
		req.ErrorIs(err, ErrPermissionDenied)

		missing := "7f0c1c52-8d4c-4d57-9c55-5e0f7b1a0d1e"
		_, err = f.svc.SendMessage(as(f.bob), f.bob, f.alice, "to nothing", &missing)
		req.ErrorIs(err, ErrParentNotFound)
	})
}

func TestChatService_EditMessage(t *testing.T) {
	t.Run("should record one history row per content change", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		ctx := as(f.alice)

		msg, err := f.svc.SendMessage(ctx, f.alice, f.bob, "v1", nil)
		req.NoError(err)

		edited, err := f.svc.EditMessage(ctx, f.alice, msg.ID, "v2")
		req.NoError(err)
		req.True(edited.Edited)
		req.NotNil(edited.EditedAt)
		req.Equal(f.alice, *edited.EditedBy)

		_, err = f.svc.EditMessage(ctx, f.alice, msg.ID, "v3")
		req.NoError(err)

		hist, err := f.svc.History(ctx, f.bob, msg.ID)
		req.NoError(err)
		req.Len(hist, 2)
		req.Equal("v2", hist[0].Content)
		req.Equal("v1", hist[1].Content)
	})

	t.Run("should not record history when the content is unchanged", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		ctx := as(f.alice)

		msg, err := f.svc.SendMessage(ctx, f.alice, f.bob, "same", nil)
		req.NoError(err)

		edited, err := f.svc.EditMessage(ctx, f.alice, msg.ID, "same")
		req.NoError(err)
		req.False(edited.Edited)

		hist, err := f.svc.History(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Empty(hist)
	})

	t.Run("should not notify again on edit", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		ctx := as(f.alice)

		msg, err := f.svc.SendMessage(ctx, f.alice, f.bob, "v1", nil)
		req.NoError(err)
		_, err = f.svc.EditMessage(ctx, f.alice, msg.ID, "v2")
		req.NoError(err)

		notes, err := f.svc.Notifications(ctx, f.bob, false)
		req.NoError(err)
		req.Len(notes, 1)
	})

	t.Run("should only let the sender edit", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		msg, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "mine", nil)
		req.NoError(err)

		_, err = f.svc.EditMessage(as(f.bob), f.bob, msg.ID, "yours now")
		req.ErrorIs(err, ErrPermissionDenied)

		_, err = f.svc.EditMessage(as(f.bob), f.bob, "unknown", "x")
		req.ErrorIs(err, ErrMessageNotFound)
	})

	t.Run("should serialize concurrent edits into exact history", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		ctx := as(f.alice)

		msg, err := f.svc.SendMessage(ctx, f.alice, f.bob, "start", nil)
		req.NoError(err)

		const editors = 20
		var wg sync.WaitGroup
		for i := 0; i < editors; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = f.svc.EditMessage(ctx, f.alice, msg.ID, "edit-"+string(rune('a'+i)))
			}(i)
		}
		wg.Wait()

		hist, err := f.svc.History(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Len(hist, editors)

		seen := make(map[string]bool)
		for _, h := range hist {
			req.False(seen[h.Content], "content %q snapshotted twice", h.Content)
			seen[h.Content] = true
		}
		req.True(seen["start"])
	})

	t.Run("should stay edited when racing edits write the same content", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		ctx := as(f.alice)

		msg, err := f.svc.SendMessage(ctx, f.alice, f.bob, "x", nil)
		req.NoError(err)

		first, err := f.messages.Get(ctx, msg.ID)
		req.NoError(err)
		second, err := f.messages.Get(ctx, msg.ID)
		req.NoError(err)

		first.Content = "y"
		req.NoError(f.messages.Update(ctx, first))
		second.Content = "y"
		req.NoError(f.messages.Update(ctx, second))

		stored, err := f.svc.GetMessage(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Equal("y", stored.Content)
		req.True(stored.Edited)
		req.NotNil(stored.EditedAt)
		req.Equal(f.alice, *stored.EditedBy)

		hist, err := f.svc.History(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Len(hist, 1)
		req.Equal("x", hist[0].Content)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = f.svc.EditMessage(ctx, f.alice, msg.ID, "z")
			}()
		}
		wg.Wait()

		stored, err = f.svc.GetMessage(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Equal("z", stored.Content)
		req.True(stored.Edited)

		hist, err = f.svc.History(ctx, f.alice, msg.ID)
		req.NoError(err)
		req.Len(hist, 2)
	})
}

func TestChatService_ReadAccess(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	msg, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "private", nil)
	req.NoError(err)

	_, err = f.svc.GetMessage(as(f.mallory), f.mallory, msg.ID)
	req.ErrorIs(err, ErrPermissionDenied)

	_, err = f.svc.History(as(f.mallory), f.mallory, msg.ID)
	req.ErrorIs(err, ErrPermissionDenied)

	_, err = f.svc.Thread(as(f.mallory), f.mallory, msg.ID)
	req.ErrorIs(err, ErrPermissionDenied)
}

func TestChatService_Thread(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	root, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "root", nil)
	req.NoError(err)
	reply, err := f.svc.SendMessage(as(f.bob), f.bob, f.alice, "reply", &root.ID)
	req.NoError(err)
	_, err = f.svc.SendMessage(as(f.alice), f.alice, f.bob, "reply to reply", &reply.ID)
	req.NoError(err)
	_, err = f.svc.SendMessage(as(f.alice), f.alice, f.bob, "unrelated", nil)
	req.NoError(err)

	thread, err := f.svc.Thread(as(f.bob), f.bob, root.ID)
	req.NoError(err)
	req.Len(thread, 3)
	req.Equal("root", thread[0].Content)
	req.Equal("reply", thread[1].Content)
	req.Equal("reply to reply", thread[2].Content)
}

func TestChatService_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	for _, c := range []string{"one", "two", "three"} {
		_, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, c, nil)
		req.NoError(err)
	}
	_, err := f.svc.SendMessage(as(f.bob), f.bob, f.alice, "four", nil)
	req.NoError(err)
	_, err = f.svc.SendMessage(as(f.mallory), f.mallory, f.alice, "elsewhere", nil)
	req.NoError(err)

	msgs, err := f.svc.Conversation(context.Background(), f.bob, f.alice, 0)
	req.NoError(err)
	req.Len(msgs, 4)

	msgs, err = f.svc.Conversation(context.Background(), f.alice, f.bob, 2)
	req.NoError(err)
	req.Len(msgs, 2)
}

func TestChatService_Notifications(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "one", nil)
	req.NoError(err)
	_, err = f.svc.SendMessage(as(f.alice), f.alice, f.bob, "two", nil)
	req.NoError(err)

	notes, err := f.svc.Notifications(ctx, f.bob, true)
	req.NoError(err)
	req.Len(notes, 2)

	req.NoError(f.svc.MarkNotificationRead(ctx, f.bob, notes[0].ID))
	req.ErrorIs(f.svc.MarkNotificationRead(ctx, f.alice, notes[1].ID), ErrNotificationNotFound)

	unread, err := f.svc.Notifications(ctx, f.bob, true)
	req.NoError(err)
	req.Len(unread, 1)
	req.Equal(notes[1].ID, unread[0].ID)
}

func TestChatService_UserDeletionCascades(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	gone, err := f.svc.SendMessage(as(f.alice), f.alice, f.bob, "bye", nil)
	req.NoError(err)
	kept, err := f.svc.SendMessage(as(f.bob), f.bob, f.mallory, "still here", &gone.ID)
	req.NoError(err)

	req.NoError(f.users.Delete(ctx, f.alice))

	_, err = f.messages.Get(ctx, gone.ID)
	req.ErrorIs(err, message.ErrMessageNotFound)

	reply, err := f.messages.Get(ctx, kept.ID)
	req.NoError(err)
	req.Nil(reply.ParentID)

	notes, err := f.svc.Notifications(ctx, f.bob, false)
	req.NoError(err)
	req.Empty(notes)

	notes, err = f.svc.Notifications(ctx, f.mallory, false)
	req.NoError(err)
	req.Len(notes, 1)
}

func TestChatService_ThreadIsCapped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := as(f.alice)

	root, err := f.svc.SendMessage(ctx, f.alice, f.bob, "root", nil)
	req.NoError(err)
	for i := 0; i < maxThreadSize+10; i++ {
		req.NoError(f.messages.Create(ctx, &models.Message{
			SenderID: f.bob, ReceiverID: f.alice, Content: "reply", ParentID: &root.ID,
		}))
	}

	thread, err := f.svc.Thread(ctx, f.alice, root.ID)
	req.NoError(err)
	req.Len(thread, maxThreadSize)
	req.Equal(root.ID, thread[0].ID)
}

func TestChatService_SendMessageObserverFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockMessageRepository(ctrl)
	users := user.NewMemoryRepository()
	ctx := context.Background()

	alice, err := users.Create(ctx, "alice", false)
	req.NoError(err)
	bob, err := users.Create(ctx, "bob", false)
	req.NoError(err)

	svc := NewChatService(messages, notification.NewMemoryRepository(), users)
	boom := errors.New("notification store down")

	messages.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *models.Message) error {
			msg.ID = "3f2a4e1c-0000-4000-8000-000000000001"
			return fmt.Errorf("%w: %w", message.ErrObserverFailed, boom)
		}).
		Times(1)

	msg, err := svc.SendMessage(ctx, alice, bob, "hi", nil)

	req.ErrorIs(err, message.ErrObserverFailed)
	req.ErrorIs(err, boom)
	req.NotNil(msg)
	req.Equal("3f2a4e1c-0000-4000-8000-000000000001", msg.ID)
	req.Equal("hi", msg.Content)
}

func TestChatService_SendMessageStoreFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockMessageRepository(ctrl)
	users := user.NewMemoryRepository()
	ctx := context.Background()

	alice, err := users.Create(ctx, "alice", false)
	req.NoError(err)

	svc := NewChatService(messages, notification.NewMemoryRepository(), users)
	boom := errors.New("connection reset")

	messages.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)

	msg, err := svc.SendMessage(ctx, alice, alice, "note", nil)

	req.ErrorIs(err, boom)
	req.Nil(msg)
}
