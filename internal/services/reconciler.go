package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
)

// DefaultGivenName is stored when the provider does not report a given name.
const DefaultGivenName = "User"

// ErrIdentityIncomplete rejects identities without a subject id or email.
// Callers treat it as an authorization failure, not a server fault.
var ErrIdentityIncomplete = errors.New("identity is missing subject id or email")

// IdentityReconciler maps an externally authenticated identity onto exactly
// one user record.
type IdentityReconciler struct {
	users repository.UserStore
}

func NewIdentityReconciler(users repository.UserStore) *IdentityReconciler {
	return &IdentityReconciler{users: users}
}

// Reconcile returns the user owning identity, creating it on first sight or
// backfilling provider linkage onto a record registered under the same
// email. Calling it repeatedly with the same identity is a no-op after the
// first call.
func (r *IdentityReconciler) Reconcile(ctx context.Context, identity *models.Identity) (*models.User, error) {
	if identity == nil {
		return nil, ErrIdentityIncomplete
	}

	subject := strings.TrimSpace(identity.SubjectID)
	email := normalizeEmail(identity.Email)
	if subject == "" || email == "" {
		return nil, ErrIdentityIncomplete
	}

	user, err := r.users.FindByProviderOrEmail(ctx, identity.Provider, subject, email)
	switch {
	case err == nil:
		return r.link(ctx, user, identity.Provider, subject, identity.AvatarURL)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user, err = r.users.Create(ctx, repository.NewUser{
		Email:         email,
		FirstName:     orDefault(identity.GivenName, DefaultGivenName),
		LastName:      strings.TrimSpace(identity.FamilyName),
		AvatarURL:     nullableString(identity.AvatarURL),
		Provider:      identity.Provider,
		ProviderID:    &subject,
		EmailVerified: true,
		Role:          models.RoleUser,
	})
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// A concurrent login created the record first.
	user, err = r.users.FindByProviderOrEmail(ctx, identity.Provider, subject, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user after conflict: %w", err)
	}
	return r.link(ctx, user, identity.Provider, subject, identity.AvatarURL)
}

func (r *IdentityReconciler) link(ctx context.Context, user *models.User, provider, subject, avatarURL string) (*models.User, error) {
	if user.IsLinked() {
		return user, nil
	}

	link := repository.ProviderLink{Provider: provider, ProviderID: subject}
	if user.AvatarURL == nil {
		link.AvatarURL = nullableString(avatarURL)
	}

	linked, err := r.users.LinkProvider(ctx, user.ID, link)
	if err != nil {
		return nil, fmt.Errorf("failed to link %s account: %w", provider, err)
	}
	return linked, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
