package identity

import "time"

// User represents an authenticated user account joined with its role.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	RoleID       int64
	RoleName     string
	RoleLevel    int
	RoleActive   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
