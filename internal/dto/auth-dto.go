package dto

import "time"

type LoginDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"omitempty"`
}

type ValidateTokenDTO struct {
	Token string `json:"token" validate:"required"`
}

// RevokeDTO revokes one token, or every session of the caller when All is set.
type RevokeDTO struct {
	Token string `json:"token" validate:"required_without=All"`
	All   bool   `json:"all"`
}

type AuthResponseDTO struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             UserDTO   `json:"user"`
	Permissions      []string  `json:"permissions"`
}

// SessionDTO describes a token as seen by /api/ultra-secure/validate.
type SessionDTO struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	UserID    uint64     `json:"user_id,omitempty"`
	RoleID    uint64     `json:"role_id,omitempty"`
	TokenType string     `json:"token_type,omitempty"`
	TokenID   string     `json:"token_id,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
