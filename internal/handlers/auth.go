package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"

	"github.com/dimitrije/storefront-admin/internal/config"
	"github.com/dimitrije/storefront-admin/internal/middleware"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/oauth"
	"github.com/dimitrije/storefront-admin/internal/services"
	"github.com/dimitrije/storefront-admin/internal/session"
	"github.com/dimitrije/storefront-admin/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

type AuthHandler struct {
	cfg          *config.Config
	providers    map[string]oauth.Provider
	reconciler   ReconcilerInterface
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	sessions     session.Store
	log          *zap.Logger
}

func NewAuthHandler(
	cfg *config.Config,
	reconciler ReconcilerInterface,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	sessions session.Store,
	log *zap.Logger,
) *AuthHandler {
	h := &AuthHandler{
		cfg:          cfg,
		providers:    make(map[string]oauth.Provider),
		reconciler:   reconciler,
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		sessions:     sessions,
		log:          log,
	}

	if cfg.GitHub.Enabled() {
		h.providers["github"] = oauth.NewGitHubProvider(cfg.GitHub)
	}
	if cfg.Google.Enabled() {
		h.providers["google"] = oauth.NewGoogleProvider(cfg.Google)
	}

	return h
}

// Providers lists the names of the configured login providers.
func (h *AuthHandler) Providers() []string {
	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	return names
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	if err := h.sessions.Put(context.Background(), session.StatePrefix+state, provider, stateTTL); err != nil {
		h.log.Error("failed to store oauth state", zap.Error(err))
		c.InternalServerError("failed to store state")
		return
	}

	_ = c.JSON(200, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		h.renderError(c, http.StatusBadRequest, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.renderError(c, http.StatusBadRequest, "missing state parameter")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stateProvider, err := h.sessions.Take(ctx, session.StatePrefix+state)
	if err != nil || stateProvider != provider {
		h.renderError(c, http.StatusBadRequest, "invalid or expired state")
		return
	}

	if providerErr := c.QueryParam("error"); providerErr != "" {
		h.renderError(c, http.StatusUnauthorized, "sign-in was cancelled: "+providerErr)
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.renderError(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	identity, err := p.ExchangeCode(ctx, code)
	if err != nil {
		h.log.Warn("oauth code exchange failed", zap.String("provider", provider), zap.Error(err))
		h.renderError(c, http.StatusBadGateway, "failed to exchange code")
		return
	}

	user, err := h.reconciler.Reconcile(ctx, identity)
	if errors.Is(err, services.ErrIdentityIncomplete) {
		h.log.Info("rejected incomplete identity", zap.String("provider", provider), zap.String("subject", identity.SubjectID))
		h.renderError(c, http.StatusUnauthorized, "your "+provider+" account did not share an email address")
		return
	}
	if err != nil {
		h.log.Error("failed to reconcile identity", zap.String("provider", provider), zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, "sign-in failed, please try again")
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, "failed to generate auth code")
		return
	}

	if err := h.sessions.Put(ctx, session.AuthCodePrefix+authCode, user.ID.String(), authCodeTTL); err != nil {
		h.log.Error("failed to store auth code", zap.Error(err))
		h.renderError(c, http.StatusInternalServerError, "failed to store auth code")
		return
	}

	h.log.Info("user signed in", zap.String("provider", provider), zap.Stringer("user_id", user.ID))

	redirectURL := fmt.Sprintf("%s?code=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(authCode))
	h.renderCallbackPage(c, http.StatusOK, redirectURL, "Signed in", "Redirecting you to the admin panel...")
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	ctx := context.Background()

	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.Unauthorized("invalid email or password")
		return
	}
	if err != nil {
		h.log.Error("password login failed", zap.Error(err))
		c.InternalServerError("failed to authenticate")
		return
	}

	h.issueTokens(ctx, c, user)
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	ctx := context.Background()

	value, err := h.sessions.Take(ctx, session.AuthCodePrefix+req.Code)
	if err != nil {
		c.Unauthorized("invalid or expired code")
		return
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		c.Unauthorized("invalid or expired code")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	h.issueTokens(ctx, c, user)
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	tokenHash := services.HashToken(req.RefreshToken)
	ctx := context.Background()

	storedUserID, err := h.tokenService.ValidateRefreshToken(ctx, tokenHash)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	if err := h.tokenService.RevokeRefreshToken(ctx, tokenHash); err != nil {
		c.InternalServerError("failed to revoke old token")
		return
	}

	h.issueTokens(ctx, c, user)
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		tokenHash := services.HashToken(req.RefreshToken)
		_ = h.tokenService.RevokeRefreshToken(context.Background(), tokenHash)
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(context.Background(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "all sessions logged out"})
}

func (h *AuthHandler) issueTokens(ctx context.Context, c *drift.Context, user *models.User) {
	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}

	tokenHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		h.log.Error("failed to store refresh token", zap.Stringer("user_id", user.ID), zap.Error(err))
		c.InternalServerError("failed to store refresh token")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

func (h *AuthHandler) renderError(c *drift.Context, status int, msg string) {
	redirectURL := fmt.Sprintf("%s?error=%s", h.cfg.FrontendCallbackURL, url.QueryEscape(msg))
	h.renderCallbackPage(c, status, redirectURL, "Sign-in failed", msg)
}

func (h *AuthHandler) renderCallbackPage(c *drift.Context, status int, redirectURL, heading, subtitle string) {
	headingColor := "#111827"
	if status != http.StatusOK {
		headingColor = "#991b1b"
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #f9fafb; color: #374151; margin: 0; padding: 40px 20px; }
        .container { max-width: 400px; margin: 0 auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 40px 32px; text-align: center; }
        h1 { font-size: 20px; font-weight: 600; color: %s; margin: 0 0 8px 0; }
        .subtitle { color: #6b7280; font-size: 14px; margin: 0 0 16px 0; }
        a { color: #374151; font-size: 13px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p class="subtitle">%s</p>
        <a href="%s">Continue to Storefront Admin</a>
    </div>
    <script>
        window.location.href = %q;
    </script>
</body>
</html>`,
		html.EscapeString(heading),
		headingColor,
		html.EscapeString(heading),
		html.EscapeString(subtitle),
		html.EscapeString(redirectURL),
		redirectURL,
	)

	_ = c.HTML(status, page)
}
