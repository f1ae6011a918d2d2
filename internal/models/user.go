package models

import "time"

// GlobalRole is the platform-level role of a user.
type GlobalRole string

const (
	GlobalRoleUser  GlobalRole = "user"
	GlobalRoleAdmin GlobalRole = "admin"
)

// Valid reports whether r is a known platform role.
func (r GlobalRole) Valid() bool {
	return r == GlobalRoleUser || r == GlobalRoleAdmin
}

// User represents an account holder of the platform.
type User struct {
	ID           UserID     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	GoogleID     string     `json:"-"`
	Role         GlobalRole `json:"role"`
	Temp         bool       `json:"temp,omitempty"`
	InviteToken  string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserRef is the populated form of a user reference shown next to ledgers and messages.
type UserRef struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Ref returns the display reference of u.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// InviteUserRequest represents the request to invite a user.
type InviteUserRequest struct {
	Email string     `json:"email"`
	Role  GlobalRole `json:"role"`
}

// UpdateUserRequest represents the request to update a user.
type UpdateUserRequest struct {
	Name *string     `json:"name,omitempty"`
	Role *GlobalRole `json:"role,omitempty"`
}

// CreateUserRequest represents the request to create an active user directly,
// bypassing the invitation flow.
type CreateUserRequest struct {
	Name     string     `json:"name" yaml:"name"`
	Email    string     `json:"email" yaml:"email"`
	Password string     `json:"password" yaml:"password"`
	Role     GlobalRole `json:"role" yaml:"role"`
}

// SignupRequest completes an invitation.
type SignupRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest carries password credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
