package models

import "time"

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MessageID string    `json:"message_id"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
