package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ProviderLocal tags accounts created with a password rather than an OAuth provider.
const ProviderLocal = "local"

type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	Provider      string    `json:"provider"`
	ProviderID    *string   `json:"-"`
	EmailVerified bool      `json:"email_verified"`
	PasswordHash  *string   `json:"-"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsLinked reports whether the user already carries an external provider linkage.
func (u *User) IsLinked() bool {
	return u.ProviderID != nil && *u.ProviderID != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
