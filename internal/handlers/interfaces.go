package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/services"
	"github.com/google/uuid"
)

// ReconcilerInterface resolves an authenticated identity to a user record.
type ReconcilerInterface interface {
	Reconcile(ctx context.Context, identity *models.Identity) (*models.User, error)
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// TokenServiceInterface defines the refresh token persistence used by handlers
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// Pinger checks the configured user store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
