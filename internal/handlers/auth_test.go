package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/storefront-admin/internal/config"
	"github.com/dimitrije/storefront-admin/internal/middleware"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/oauth"
	"github.com/dimitrije/storefront-admin/internal/services"
	"github.com/dimitrije/storefront-admin/internal/session"
	"github.com/dimitrije/storefront-admin/internal/testutil"
	"github.com/dimitrije/storefront-admin/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authTestDeps struct {
	reconciler   *testutil.MockReconciler
	userService  *testutil.MockUserService
	tokenService *testutil.MockTokenService
	jwtService   *testutil.MockJWTService
	sessions     *session.MemoryStore
	cfg          *config.Config
}

func setupAuthTest(t *testing.T) (*authTestDeps, *AuthHandler) {
	t.Helper()
	deps := &authTestDeps{
		reconciler:   new(testutil.MockReconciler),
		userService:  new(testutil.MockUserService),
		tokenService: new(testutil.MockTokenService),
		jwtService:   new(testutil.MockJWTService),
		sessions:     session.NewMemoryStore(),
		cfg: &config.Config{
			FrontendCallbackURL: "http://localhost:3000/auth/callback",
		},
	}

	handler := &AuthHandler{
		cfg:          deps.cfg,
		providers:    make(map[string]oauth.Provider),
		reconciler:   deps.reconciler,
		userService:  deps.userService,
		tokenService: deps.tokenService,
		jwtService:   deps.jwtService,
		sessions:     deps.sessions,
		log:          zap.NewNop(),
	}

	return deps, handler
}

func postJSON(app http.Handler, path string, body any) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestNewAuthHandler_RegistersConfiguredProviders(t *testing.T) {
	cfg := &config.Config{
		Google: config.OAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
	}

	handler := NewAuthHandler(cfg, nil, nil, nil, nil, session.NewMemoryStore(), zap.NewNop())

	assert.Equal(t, []string{"google"}, handler.Providers())
}

func TestAuthHandler_ExchangeCode_Success(t *testing.T) {
	deps, handler := setupAuthTest(t)

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "test@example.com", Provider: "github", Role: models.RoleUser}
	tokenPair := &services.TokenPair{
		AccessToken:  "access-token-123",
		RefreshToken: "refresh-token-456",
		ExpiresIn:    3600,
	}

	require.NoError(t, deps.sessions.Put(context.Background(), session.AuthCodePrefix+"test-auth-code", userID.String(), time.Minute))

	deps.userService.On("GetByID", mock.Anything, userID).Return(user, nil)
	deps.jwtService.On("GenerateTokenPair", userID, "test@example.com", models.RoleUser).Return(tokenPair, nil)
	deps.jwtService.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	deps.tokenService.On("StoreRefreshToken", mock.Anything, userID, services.HashToken("refresh-token-456"), mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "test-auth-code"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "access-token-123", response.AccessToken)
	assert.Equal(t, "refresh-token-456", response.RefreshToken)
	assert.Equal(t, int64(3600), response.ExpiresIn)

	deps.userService.AssertExpectations(t)
	deps.jwtService.AssertExpectations(t)
	deps.tokenService.AssertExpectations(t)
}

func TestAuthHandler_ExchangeCode_CodeIsSingleUse(t *testing.T) {
	deps, handler := setupAuthTest(t)

	userID := uuid.New()
	require.NoError(t, deps.sessions.Put(context.Background(), session.AuthCodePrefix+"once", userID.String(), time.Minute))

	deps.userService.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, Email: "a@example.com", Role: models.RoleUser}, nil).Once()
	deps.jwtService.On("GenerateTokenPair", userID, "a@example.com", models.RoleUser).Return(&services.TokenPair{RefreshToken: "r"}, nil).Once()
	deps.jwtService.On("RefreshExpiry").Return(time.Hour)
	deps.tokenService.On("StoreRefreshToken", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil).Once()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	first := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "once"})
	second := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "once"})

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusUnauthorized, second.Code)
}

func TestAuthHandler_ExchangeCode_InvalidCode(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{Code: "invalid-code"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired code")
}

func TestAuthHandler_ExchangeCode_MissingCode(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/exchange", handler.ExchangeCode)

	rec := postJSON(app, "/auth/exchange", dto.ExchangeCodeRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "code is required")
}

func TestAuthHandler_Login_Success(t *testing.T) {
	deps, handler := setupAuthTest(t)

	admin := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin}
	deps.userService.On("Authenticate", mock.Anything, "admin@example.com", "admin123").Return(admin, nil)
	deps.jwtService.On("GenerateTokenPair", admin.ID, admin.Email, models.RoleAdmin).Return(&services.TokenPair{
		AccessToken: "a", RefreshToken: "r", ExpiresIn: 900,
	}, nil)
	deps.jwtService.On("RefreshExpiry").Return(time.Hour)
	deps.tokenService.On("StoreRefreshToken", mock.Anything, admin.ID, services.HashToken("r"), mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/login", handler.Login)

	rec := postJSON(app, "/auth/login", dto.LoginRequest{Email: "admin@example.com", Password: "admin123"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"a"`)
	deps.userService.AssertExpectations(t)
	deps.tokenService.AssertExpectations(t)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	deps, handler := setupAuthTest(t)
	deps.userService.On("Authenticate", mock.Anything, "admin@example.com", "nope").Return(nil, services.ErrInvalidCredentials)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/login", handler.Login)

	rec := postJSON(app, "/auth/login", dto.LoginRequest{Email: "admin@example.com", Password: "nope"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
	deps.jwtService.AssertNotCalled(t, "GenerateTokenPair", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/login", handler.Login)

	rec := postJSON(app, "/auth/login", dto.LoginRequest{Email: "admin@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	deps, handler := setupAuthTest(t)

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "test@example.com", Role: models.RoleAdmin}
	oldRefreshToken := "old-refresh-token"
	newTokenPair := &services.TokenPair{
		AccessToken:  "new-access-token",
		RefreshToken: "new-refresh-token",
		ExpiresIn:    3600,
	}

	deps.jwtService.On("ValidateRefreshToken", oldRefreshToken).Return(userID, nil)
	deps.tokenService.On("ValidateRefreshToken", mock.Anything, services.HashToken(oldRefreshToken)).Return(userID, nil)
	deps.userService.On("GetByID", mock.Anything, userID).Return(user, nil)
	deps.tokenService.On("RevokeRefreshToken", mock.Anything, services.HashToken(oldRefreshToken)).Return(nil)
	deps.jwtService.On("GenerateTokenPair", userID, "test@example.com", models.RoleAdmin).Return(newTokenPair, nil)
	deps.jwtService.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	deps.tokenService.On("StoreRefreshToken", mock.Anything, userID, services.HashToken("new-refresh-token"), mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: oldRefreshToken})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "new-access-token", response.AccessToken)
	assert.Equal(t, "new-refresh-token", response.RefreshToken)

	deps.userService.AssertExpectations(t)
	deps.jwtService.AssertExpectations(t)
	deps.tokenService.AssertExpectations(t)
}

func TestAuthHandler_RefreshToken_InvalidToken(t *testing.T) {
	deps, handler := setupAuthTest(t)

	deps.jwtService.On("ValidateRefreshToken", "invalid-token").Return(uuid.Nil, errors.New("invalid token"))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "invalid-token"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid refresh token")

	deps.jwtService.AssertExpectations(t)
}

func TestAuthHandler_RefreshToken_Revoked(t *testing.T) {
	deps, handler := setupAuthTest(t)

	userID := uuid.New()
	deps.jwtService.On("ValidateRefreshToken", "revoked").Return(userID, nil)
	deps.tokenService.On("ValidateRefreshToken", mock.Anything, services.HashToken("revoked")).Return(uuid.Nil, errors.New("record not found"))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "revoked"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh token not found or expired")
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/refresh", handler.RefreshToken)

	rec := postJSON(app, "/auth/refresh", dto.RefreshTokenRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh_token is required")
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	deps, handler := setupAuthTest(t)

	deps.tokenService.On("RevokeRefreshToken", mock.Anything, services.HashToken("some-refresh-token")).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/logout", handler.Logout)

	rec := postJSON(app, "/auth/logout", dto.RefreshTokenRequest{RefreshToken: "some-refresh-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logged out")

	deps.tokenService.AssertExpectations(t)
}

func TestAuthHandler_Logout_EmptyToken(t *testing.T) {
	deps, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/auth/logout", handler.Logout)

	rec := postJSON(app, "/auth/logout", dto.RefreshTokenRequest{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logged out")
	deps.tokenService.AssertNotCalled(t, "RevokeRefreshToken", mock.Anything, mock.Anything)
}

func TestAuthHandler_LogoutAll_Success(t *testing.T) {
	deps, handler := setupAuthTest(t)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	deps.tokenService.On("RevokeAllUserTokens", mock.Anything, userID).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/auth/logout-all", handler.LogoutAll)

	token := generateTestToken(t, jwtSvc, userID, "test@example.com")
	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "all sessions logged out")

	deps.tokenService.AssertExpectations(t)
}

func TestAuthHandler_LogoutAll_NotAuthenticated(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(newTestJWTService()))
	app.Post("/auth/logout-all", handler.LogoutAll)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout-all", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_GetConsentURL_UnsupportedProvider(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Get("/auth/:provider/consent", handler.GetConsentURL)

	req := httptest.NewRequest(http.MethodGet, "/auth/unsupported/consent", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported provider")
}

func TestAuthHandler_GetConsentURL_Success(t *testing.T) {
	_, handler := setupAuthTest(t)

	var issuedState string
	mockProvider := new(testutil.MockOAuthProvider)
	mockProvider.On("GetConsentURL", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { issuedState = args.String(0) }).
		Return("https://provider.com/auth?state=abc")
	handler.providers["google"] = mockProvider

	app := drift.New()
	app.Get("/auth/:provider/consent", handler.GetConsentURL)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/consent", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.ConsentURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Contains(t, response.URL, "https://provider.com/auth")

	provider, err := handler.sessions.Take(context.Background(), session.StatePrefix+issuedState)
	require.NoError(t, err)
	assert.Equal(t, "google", provider)

	mockProvider.AssertExpectations(t)
}

// Callback tests

func setupCallback(t *testing.T) (*authTestDeps, *AuthHandler, *testutil.MockOAuthProvider, http.Handler) {
	t.Helper()
	deps, handler := setupAuthTest(t)

	mockProvider := new(testutil.MockOAuthProvider)
	handler.providers["google"] = mockProvider

	require.NoError(t, deps.sessions.Put(context.Background(), session.StatePrefix+"valid-state", "google", time.Minute))

	app := drift.New()
	app.Get("/auth/:provider/callback", handler.Callback)

	return deps, handler, mockProvider, app
}

func getCallback(app http.Handler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_Callback_UnsupportedProvider(t *testing.T) {
	_, handler := setupAuthTest(t)

	app := drift.New()
	app.Get("/auth/:provider/callback", handler.Callback)

	req := httptest.NewRequest(http.MethodGet, "/auth/unsupported/callback?code=abc&state=xyz", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error=unsupported+provider")
}

func TestAuthHandler_Callback_MissingState(t *testing.T) {
	_, _, _, app := setupCallback(t)

	rec := getCallback(app, "code=test-code")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing state parameter")
}

func TestAuthHandler_Callback_InvalidState(t *testing.T) {
	_, _, _, app := setupCallback(t)

	rec := getCallback(app, "code=test-code&state=forged")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired state")
}

func TestAuthHandler_Callback_StateForOtherProvider(t *testing.T) {
	deps, _, _, app := setupCallback(t)
	require.NoError(t, deps.sessions.Put(context.Background(), session.StatePrefix+"github-state", "github", time.Minute))

	rec := getCallback(app, "code=test-code&state=github-state")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired state")
}

func TestAuthHandler_Callback_MissingCode(t *testing.T) {
	_, _, _, app := setupCallback(t)

	rec := getCallback(app, "state=valid-state")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization code")
}

func TestAuthHandler_Callback_ProviderDenied(t *testing.T) {
	_, _, mockProvider, app := setupCallback(t)

	rec := getCallback(app, "state=valid-state&error=access_denied")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mockProvider.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}

func TestAuthHandler_Callback_ExchangeCodeError(t *testing.T) {
	deps, _, mockProvider, app := setupCallback(t)
	mockProvider.On("ExchangeCode", mock.Anything, "test-code").Return(nil, errors.New("exchange failed"))

	rec := getCallback(app, "code=test-code&state=valid-state")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "error=failed+to+exchange+code")
	deps.reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
	mockProvider.AssertExpectations(t)
}

func TestAuthHandler_Callback_IncompleteIdentityIsRejected(t *testing.T) {
	deps, _, mockProvider, app := setupCallback(t)

	identity := &models.Identity{Provider: "google", SubjectID: "g-1"}
	mockProvider.On("ExchangeCode", mock.Anything, "test-code").Return(identity, nil)
	deps.reconciler.On("Reconcile", mock.Anything, identity).Return(nil, services.ErrIdentityIncomplete)

	rec := getCallback(app, "code=test-code&state=valid-state")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "did not share an email address")
	assert.NotContains(t, rec.Body.String(), "code=")
	deps.reconciler.AssertExpectations(t)
}

func TestAuthHandler_Callback_ReconcileError(t *testing.T) {
	deps, _, mockProvider, app := setupCallback(t)

	identity := &models.Identity{Provider: "google", SubjectID: "g-1", Email: "test@example.com"}
	mockProvider.On("ExchangeCode", mock.Anything, "test-code").Return(identity, nil)
	deps.reconciler.On("Reconcile", mock.Anything, identity).Return(nil, errors.New("db error"))

	rec := getCallback(app, "code=test-code&state=valid-state")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "sign-in failed")
	assert.NotContains(t, rec.Body.String(), "db error")
}

func TestAuthHandler_Callback_Success(t *testing.T) {
	deps, _, mockProvider, app := setupCallback(t)

	identity := &models.Identity{Provider: "google", SubjectID: "g-1", Email: "test@example.com", GivenName: "Ada"}
	user := &models.User{ID: uuid.New(), Email: "test@example.com", FirstName: "Ada", Provider: "google", Role: models.RoleUser}
	mockProvider.On("ExchangeCode", mock.Anything, "test-code").Return(identity, nil)
	deps.reconciler.On("Reconcile", mock.Anything, identity).Return(user, nil)

	rec := getCallback(app, "code=test-code&state=valid-state")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, deps.cfg.FrontendCallbackURL+"?code=")
	assert.NotContains(t, body, "error=")

	// The state is consumed.
	again := getCallback(app, "code=test-code&state=valid-state")
	assert.Equal(t, http.StatusBadRequest, again.Code)

	mockProvider.AssertExpectations(t)
	deps.reconciler.AssertExpectations(t)
}
