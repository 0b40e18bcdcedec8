// Package admin seeds and inspects the back-office administrator account.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/storefront-admin/internal/config"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/dimitrije/storefront-admin/internal/services"
)

var (
	ErrAdminExists   = errors.New("admin user already exists")
	ErrAdminNotFound = errors.New("admin user not found")
)

type Seeder struct {
	users repository.UserStore
}

func NewSeeder(users repository.UserStore) *Seeder {
	return &Seeder{users: users}
}

// EnsureAdmin creates the configured administrator. When a user with the
// same email exists it returns that user together with ErrAdminExists and
// writes nothing.
func (s *Seeder) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil, errors.New("admin email is required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, ErrAdminExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := services.HashPassword(cfg.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, repository.NewUser{
		Email:         email,
		FirstName:     cfg.FirstName,
		LastName:      cfg.LastName,
		Provider:      models.ProviderLocal,
		EmailVerified: true,
		PasswordHash:  &hash,
		Role:          models.RoleAdmin,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAdminExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, nil
}

// Describe loads the account registered under email.
func (s *Seeder) Describe(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	return user, nil
}

// Promote grants the admin role to an existing account.
func (s *Seeder) Promote(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Describe(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}

	promoted, err := s.users.SetRole(ctx, user.ID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", user.Email, err)
	}
	return promoted, nil
}
