package auth

import (
	"context"
	"fmt"

	"github.com/petcove/petcove-api/internal/models"
)

// Provider verifies a bearer token and resolves the user it belongs to.
type Provider interface {
	// VerifyToken returns the authenticated user id for a valid token.
	VerifyToken(ctx context.Context, token string) (string, error)

	// Name identifies the provider in logs.
	Name() string
}

// NewProvider builds the configured provider. Clerk is the default for any
// deployment that sets a secret key; the local JWT verifier covers
// self-hosted setups.
func NewProvider(cfg models.AuthConfig) (Provider, error) {
	switch cfg.Provider {
	case "clerk", "":
		if cfg.Clerk == nil || cfg.Clerk.SecretKey == "" {
			return nil, fmt.Errorf("auth provider clerk requires auth.clerk.secret_key")
		}
		return NewClerkProvider(cfg.Clerk.SecretKey), nil
	case "jwt":
		if cfg.JWT == nil || cfg.JWT.SigningKey == "" {
			return nil, fmt.Errorf("auth provider jwt requires auth.jwt.signing_key")
		}
		return NewLocalJWTProvider(cfg.JWT.SigningKey, cfg.JWT.Issuer), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider: %s", cfg.Provider)
	}
}
