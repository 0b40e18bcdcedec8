package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/dimitrije/storefront-admin/internal/models"
)

// Provider drives one external login flow and reports the identity it
// authenticated. Identities may come back without an email; the reconciler
// decides what to do with those.
type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*models.Identity, error)
	Name() string
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// splitName turns a display name into given and family names.
func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	given, family, _ := strings.Cut(name, " ")
	return given, strings.TrimSpace(family)
}
