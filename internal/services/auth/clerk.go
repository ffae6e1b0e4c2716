package auth

import (
	"context"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

// ClerkProvider verifies session tokens issued by the hosted identity
// provider.
type ClerkProvider struct {
	secretKey string
}

func NewClerkProvider(secretKey string) *ClerkProvider {
	clerk.SetKey(secretKey)

	return &ClerkProvider{secretKey: secretKey}
}

func (p *ClerkProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	return claims.Subject, nil
}

func (p *ClerkProvider) Name() string {
	return "clerk"
}
