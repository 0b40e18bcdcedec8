package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/dimitrije/storefront-admin/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func userOrNil(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockUserStore mocks repository.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByProviderOrEmail(ctx context.Context, provider, providerID, email string) (*models.User, error) {
	return userOrNil(m.Called(ctx, provider, providerID, email))
}

func (m *MockUserStore) Create(ctx context.Context, u repository.NewUser) (*models.User, error) {
	return userOrNil(m.Called(ctx, u))
}

func (m *MockUserStore) LinkProvider(ctx context.Context, id uuid.UUID, link repository.ProviderLink) (*models.User, error) {
	return userOrNil(m.Called(ctx, id, link))
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return userOrNil(m.Called(ctx, id))
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return userOrNil(m.Called(ctx, email))
}

func (m *MockUserStore) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	return userOrNil(m.Called(ctx, id, firstName, lastName))
}

func (m *MockUserStore) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	return userOrNil(m.Called(ctx, id, role))
}

func (m *MockUserStore) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return userOrNil(m.Called(ctx, id))
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	return userOrNil(m.Called(ctx, id, firstName, lastName))
}

func (m *MockUserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	return userOrNil(m.Called(ctx, id, role))
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return userOrNil(m.Called(ctx, email, password))
}

// MockReconciler mocks services.IdentityReconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, identity *models.Identity) (*models.User, error) {
	return userOrNil(m.Called(ctx, identity))
}

// MockTokenService mocks refresh token persistence
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenService) CleanupExpired(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error) {
	args := m.Called(userID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*models.Identity, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// MockPinger mocks a store health check
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
