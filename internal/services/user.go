package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

const maxPageSize = 100

type UserService struct {
	users repository.UserStore
}

func NewUserService(users repository.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	return s.users.UpdateName(ctx, id, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.users.SetRole(ctx, id, role)
}

// Authenticate checks a password login. Accounts that only ever signed in
// through a provider have no password and are rejected.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := CheckPassword(*user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}
