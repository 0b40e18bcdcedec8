package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// NewUser carries the fields of a user record about to be inserted.
type NewUser struct {
	Email         string
	FirstName     string
	LastName      string
	AvatarURL     *string
	Provider      string
	ProviderID    *string
	EmailVerified bool
	PasswordHash  *string
	Role          string
}

// ProviderLink backfills external provider linkage onto an existing user.
// A nil AvatarURL leaves the stored avatar untouched.
type ProviderLink struct {
	Provider   string
	ProviderID string
	AvatarURL  *string
}

// UserStore is implemented by the Postgres and Mongo repositories.
type UserStore interface {
	// FindByProviderOrEmail returns the record linked to provider/providerID,
	// falling back to the record registered under email. ErrNotFound when
	// neither matches.
	FindByProviderOrEmail(ctx context.Context, provider, providerID, email string) (*models.User, error)
	Create(ctx context.Context, u NewUser) (*models.User, error)
	LinkProvider(ctx context.Context, id uuid.UUID, link ProviderLink) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type TokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpired(ctx context.Context) error
}
