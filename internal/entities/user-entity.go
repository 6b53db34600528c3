package entities

import "time"

type User struct {
	ID            uint64
	Name          string
	Email         string
	Login         string
	Password      string
	RoleID        uint64
	RoleName      string
	ApprovalLevel int
	StationID     *uint64
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Role struct {
	ID          uint64
	Name        string
	Description *string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
