package models

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig holds rate limiting middleware configuration
type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
	KeyFunc    func(*fiber.Ctx) string
}

// TimeoutConfig holds request timeout middleware configuration
type TimeoutConfig struct {
	Timeout time.Duration
}
