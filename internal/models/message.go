package models

import "time"

type Message struct {
	ID         string     `json:"id"`
	SenderID   int64      `json:"sender_id"`
	ReceiverID int64      `json:"receiver_id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	Edited     bool       `json:"edited"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	EditedBy   *int64     `json:"edited_by,omitempty"`
	ParentID   *string    `json:"parent_id,omitempty"`
}

// Involves reports whether userID is the sender or the receiver.
func (m *Message) Involves(userID int64) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// MessageHistory holds the content a message had before one edit.
type MessageHistory struct {
	ID        int64     `json:"id"`
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	SavedAt   time.Time `json:"saved_at"`
	EditedBy  *int64    `json:"edited_by,omitempty"`
}
