package dto

type NotificationDTO struct {
	ID           uint64  `json:"id"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Message      string  `json:"message"`
	SuggestionID *uint64 `json:"suggestion_id"`
	IsRead       bool    `json:"is_read"`
	ReadAt       *string `json:"read_at"`
	CreatedAt    string  `json:"created_at"`
}

type UnreadCountDTO struct {
	Count int64 `json:"count"`
}

type RegisterPushDTO struct {
	Token    string `json:"token" validate:"required,min=10,max=512"`
	Platform string `json:"platform" validate:"required,oneof=web android ios"`
}

type UnregisterPushDTO struct {
	Token string `json:"token" validate:"required"`
}
