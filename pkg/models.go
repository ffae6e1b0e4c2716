package pkg

import "github.com/petcove/petcove-api/internal/models"

type (
	ServerConfig    = models.ServerConfig
	DatabaseConfig  = models.DatabaseConfig
	RedisConfig     = models.RedisConfig
	StripeConfig    = models.StripeConfig
	AuthConfig      = models.AuthConfig
	ClerkConfig     = models.ClerkConfig
	LocalJWTConfig  = models.LocalJWTConfig
	CreditsConfig   = models.CreditsConfig
	WorkerConfig    = models.WorkerConfig
	GDPRConfig      = models.GDPRConfig
	RateLimitConfig = models.RateLimitConfig
	TimeoutConfig   = models.TimeoutConfig
)
