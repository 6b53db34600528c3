package entities

import "time"

type Notification struct {
	ID           uint64
	UserID       uint64
	Type         string
	Title        string
	Message      string
	SuggestionID *uint64
	IsRead       bool
	ReadAt       *time.Time
	CreatedAt    time.Time
}

type PushSubscription struct {
	ID         uint64
	UserID     uint64
	Token      string
	Platform   string
	UserAgent  *string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
