package middleware

import (
	"strings"

	"github.com/petcove/petcove-api/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// AuthMiddleware authenticates API requests with the configured token
// provider. Webhook and health endpoints are skipped: webhooks carry their
// own signatures and health must stay reachable for probes.
type AuthMiddleware struct {
	provider auth.Provider
	config   *AuthMiddlewareConfig
}

type AuthMiddlewareConfig struct {
	Enabled   bool
	SkipPaths []string
}

func DefaultAuthMiddlewareConfig() *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/webhooks",
		},
	}
}

func NewAuthMiddleware(provider auth.Provider, config *AuthMiddlewareConfig) *AuthMiddleware {
	if config == nil {
		config = DefaultAuthMiddlewareConfig()
	}
	return &AuthMiddleware{
		provider: provider,
		config:   config,
	}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.config.Enabled || m.shouldSkip(c.Path()) {
			return c.Next()
		}

		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		userID, err := m.provider.VerifyToken(c.UserContext(), token)
		if err != nil {
			fiberlog.Debugf("Token verification failed via %s: %v", m.provider.Name(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		auth.SetUserID(c, userID)
		return c.Next()
	}
}

func (m *AuthMiddleware) shouldSkip(path string) bool {
	for _, skip := range m.config.SkipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

func extractBearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
