package builder

import "github.com/petcove/petcove-api/internal/models"

func (b *Builder) WithStripe(secretKey, webhookSecret string) *Builder {
	b.cfg.Stripe = models.StripeConfig{
		SecretKey:     secretKey,
		WebhookSecret: webhookSecret,
	}
	return b
}

func (b *Builder) WithCredits(cfg models.CreditsConfig) *Builder {
	if cfg.CentsPerCredit <= 0 {
		cfg.CentsPerCredit = 20
	}
	b.cfg.Credits = cfg
	return b
}

func (b *Builder) WithExportRetention(ttlHours, cleanupIntervalMinutes int) *Builder {
	b.cfg.GDPR = models.GDPRConfig{
		ExportTTLHours:         ttlHours,
		CleanupIntervalMinutes: cleanupIntervalMinutes,
	}
	return b
}

func (b *Builder) WithWorkers(poolSize, bufferSize int) *Builder {
	b.cfg.Workers = models.WorkerConfig{
		PoolSize:   poolSize,
		BufferSize: bufferSize,
	}
	return b
}
