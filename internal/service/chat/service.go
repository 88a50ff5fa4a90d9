package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/christmas-fire/courier/internal/models"
	"github.com/christmas-fire/courier/internal/repository/message"
	"github.com/christmas-fire/courier/internal/repository/notification"
	"github.com/christmas-fire/courier/internal/repository/user"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrEmptyContent         = errors.New("message content cannot be empty")
	ErrReceiverNotFound     = errors.New("receiver not found")
	ErrParentNotFound       = errors.New("parent message not found")
	ErrMessageNotFound      = message.ErrMessageNotFound
	ErrNotificationNotFound = notification.ErrNotificationNotFound
)

const (
	defaultConversationLimit = 50
	maxThreadSize            = 500
)

type ChatService struct {
	messages      message.MessageRepository
	notifications notification.NotificationRepository
	users         user.UserRepository
}

func NewChatService(
	messages message.MessageRepository,
	notifications notification.NotificationRepository,
	users user.UserRepository,
) *ChatService {
	return &ChatService{messages: messages, notifications: notifications, users: users}
}

// SendMessage stores a new message. When the message is stored but its notification
// could not be, the message is returned together with an error wrapping
// message.ErrObserverFailed.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID int64, content string, parentID *string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	if parentID != nil {
		parent, err := s.messages.Get(ctx, *parentID)
		if err != nil {
			if errors.Is(err, message.ErrMessageNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if !parent.Involves(senderID) {
			return nil, ErrPermissionDenied
		}
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		ParentID:   parentID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, message.ErrObserverFailed) {
			return msg, err
		}
		return nil, err
	}
	return msg, nil
}

// EditMessage replaces the content of a message. Only its sender may edit it.
func (s *ChatService) EditMessage(ctx context.Context, editorID int64, messageID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != editorID {
		return nil, ErrPermissionDenied
	}

	msg.Content = content
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) GetMessage(ctx context.Context, userID int64, messageID string) (*models.Message, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !msg.Involves(userID) {
		return nil, ErrPermissionDenied
	}
	return msg, nil
}

// History lists the previous versions of a message, newest first.
func (s *ChatService) History(ctx context.Context, userID int64, messageID string) ([]models.MessageHistory, error) {
	if _, err := s.GetMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}
	return s.messages.History(ctx, messageID)
}

// Thread returns the message followed by its transitive replies, breadth first, capped
// at maxThreadSize messages.
func (s *ChatService) Thread(ctx context.Context, userID int64, rootID string) ([]models.Message, error) {
	root, err := s.GetMessage(ctx, userID, rootID)
	if err != nil {
		return nil, err
	}

	thread := []models.Message{*root}
	seen := map[string]bool{root.ID: true}
	for i := 0; i < len(thread) && len(thread) < maxThreadSize; i++ {
		replies, err := s.messages.Filter(ctx, message.Filter{ParentID: thread[i].ID})
		if err != nil {
			return nil, fmt.Errorf("failed to load replies of %s: %w", thread[i].ID, err)
		}
		// Filter returns newest first; threads read oldest first.
		for j := len(replies) - 1; j >= 0 && len(thread) < maxThreadSize; j-- {
			if seen[replies[j].ID] {
				continue
			}
			seen[replies[j].ID] = true
			thread = append(thread, replies[j])
		}
	}
	return thread, nil
}

// Conversation lists the latest messages exchanged between userID and peerID, newest first.
func (s *ChatService) Conversation(ctx context.Context, userID, peerID int64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > defaultConversationLimit {
		limit = defaultConversationLimit
	}
	return s.messages.Filter(ctx, message.Filter{Between: [2]int64{userID, peerID}, Limit: limit})
}

func (s *ChatService) Notifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly)
}

func (s *ChatService) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	return s.notifications.MarkRead(ctx, notificationID, userID)
}
