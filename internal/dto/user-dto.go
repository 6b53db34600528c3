package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Email         string  `json:"email" validate:"required,email,max=255"`
	Login         string  `json:"login" validate:"required,min=3,max=64,alphanum"`
	Password      string  `json:"password" validate:"required,min=8,max=72"`
	RoleID        uint64  `json:"role_id" validate:"required"`
	ApprovalLevel int     `json:"approval_level" validate:"gte=0,lte=9"`
	StationID     *uint64 `json:"station_id" validate:"omitempty"`
}

type UpdateUserDTO struct {
	Name          null.String `json:"name" validate:"omitempty,max=255"`
	Email         null.String `json:"email" validate:"omitempty,email,max=255"`
	RoleID        null.Uint64 `json:"role_id"`
	ApprovalLevel null.Int64  `json:"approval_level" validate:"omitempty,gte=0,lte=9"`
	StationID     null.Uint64 `json:"station_id"`
	Active        null.Bool   `json:"active"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type UserDTO struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Login         string  `json:"login"`
	RoleID        uint64  `json:"role_id"`
	RoleName      string  `json:"role_name,omitempty"`
	ApprovalLevel int     `json:"approval_level"`
	StationID     *uint64 `json:"station_id"`
	Active        bool    `json:"active"`
	CreatedAt     string  `json:"created_at"`
}

type CreateRoleDTO struct {
	Name        string   `json:"name" validate:"required,max=64"`
	Description *string  `json:"description" validate:"omitempty,max=255"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type UpdateRoleDTO struct {
	Name        null.String `json:"name" validate:"omitempty,max=64"`
	Description null.String `json:"description" validate:"omitempty,max=255"`
	Permissions []string    `json:"permissions" validate:"omitempty,dive,required"`
}

type RoleDTO struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}
