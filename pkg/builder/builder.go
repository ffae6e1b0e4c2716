package builder

import (
	"github.com/petcove/petcove-api/internal/config"
	"github.com/petcove/petcove-api/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Builder struct {
	cfg             *config.Config
	middlewares     []fiber.Handler
	rateLimitConfig *models.RateLimitConfig
	timeoutConfig   *models.TimeoutConfig
}

func New() *Builder {
	return &Builder{
		cfg: &config.Config{
			Server: models.ServerConfig{
				Port:           "8080",
				AllowedOrigins: "*",
				Environment:    "development",
				LogLevel:       "info",
			},
			Credits: models.CreditsConfig{
				CentsPerCredit:      20,
				WelcomeBonusCredits: 10,
			},
			Workers: models.WorkerConfig{
				PoolSize:   4,
				BufferSize: 256,
			},
			GDPR: models.GDPRConfig{
				ExportTTLHours:         72,
				CleanupIntervalMinutes: 60,
			},
		},
		middlewares: []fiber.Handler{},
	}
}

func (b *Builder) Build() *config.Config {
	return b.cfg
}

func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}

func (b *Builder) GetRateLimitConfig() *models.RateLimitConfig {
	return b.rateLimitConfig
}

func (b *Builder) GetTimeoutConfig() *models.TimeoutConfig {
	return b.timeoutConfig
}
