package builder

import "github.com/petcove/petcove-api/internal/models"

func (b *Builder) WithClerkAuth(secretKey, webhookSecret string) *Builder {
	b.cfg.Auth = models.AuthConfig{
		Provider: "clerk",
		Clerk: &models.ClerkConfig{
			SecretKey:     secretKey,
			WebhookSecret: webhookSecret,
		},
	}
	return b
}

func (b *Builder) WithJWTAuth(signingKey, issuer string) *Builder {
	b.cfg.Auth = models.AuthConfig{
		Provider: "jwt",
		JWT: &models.LocalJWTConfig{
			SigningKey: signingKey,
			Issuer:     issuer,
		},
	}
	return b
}
