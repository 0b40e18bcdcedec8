package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	users   repository.UserStore
	counter int
}

func NewFixtures(users repository.UserStore) *Fixtures {
	return &Fixtures{users: users}
}

// CreateUser stores a local, unlinked user unless options say otherwise
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	u := repository.NewUser{
		Email:     fmt.Sprintf("user%d@example.com", f.counter),
		FirstName: fmt.Sprintf("Test%d", f.counter),
		LastName:  "User",
		Provider:  models.ProviderLocal,
		Role:      models.RoleUser,
	}

	for _, opt := range opts {
		opt(&u)
	}

	user, err := f.users.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// UserOption configures a test user
type UserOption func(*repository.NewUser)

func WithEmail(email string) UserOption {
	return func(u *repository.NewUser) {
		u.Email = email
	}
}

// WithProvider links the user to an external provider
func WithProvider(provider, providerID string) UserOption {
	return func(u *repository.NewUser) {
		u.Provider = provider
		u.ProviderID = &providerID
		u.EmailVerified = true
	}
}

func WithAvatar(url string) UserOption {
	return func(u *repository.NewUser) {
		u.AvatarURL = &url
	}
}

func WithPasswordHash(hash string) UserOption {
	return func(u *repository.NewUser) {
		u.PasswordHash = &hash
	}
}

func WithRole(role string) UserOption {
	return func(u *repository.NewUser) {
		u.Role = role
	}
}
