package gateway

import (
	"encoding/json"
)

// Frame types exchanged over the websocket.
const (
	TypeAuth                = "auth"
	TypeAuthStatus          = "auth_status"
	TypeNotification        = "notification"
	TypeUnreadNotifications = "unread_notifications"
)

// WsMessage wraps every frame. Payload is decoded once Type is known.
type WsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type AuthRequest struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewWsMessage(typ string, payload interface{}) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg := WsMessage{
		Type:    typ,
		Payload: p,
	}

	return json.Marshal(msg)
}
