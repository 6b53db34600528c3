package websocket

import "time"

// Envelope wraps every message so the dashboard can dispatch on Type.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	MessageTypeNotification = "notification"
	MessageTypeMapUpdated   = "map.updated"
)

// NotificationPayload is what the notification bell renders.
type NotificationPayload struct {
	ID           uint64    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	SuggestionID *uint64   `json:"suggestion_id,omitempty"`
	Link         string    `json:"link"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}
