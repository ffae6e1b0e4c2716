package models

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string `json:"port,omitzero" yaml:"port"`
	AllowedOrigins string `json:"allowed_origins,omitzero" yaml:"allowed_origins"`
	Environment    string `json:"environment,omitzero" yaml:"environment"`
	LogLevel       string `json:"log_level,omitzero" yaml:"log_level"`
}

// StripeConfig holds payment-provider credentials
type StripeConfig struct {
	SecretKey     string `json:"secret_key" yaml:"secret_key"`
	WebhookSecret string `json:"webhook_secret" yaml:"webhook_secret"`
}

// RedisConfig holds the cache/dedup store connection
type RedisConfig struct {
	URL string `json:"url,omitzero" yaml:"url"`
}

// AuthConfig selects and configures the bearer-token verifier
type AuthConfig struct {
	Provider string          `json:"provider" yaml:"provider"`
	Clerk    *ClerkConfig    `json:"clerk,omitempty" yaml:"clerk,omitempty"`
	JWT      *LocalJWTConfig `json:"jwt,omitempty" yaml:"jwt,omitempty"`
}

// ClerkConfig holds the hosted identity provider credentials. The webhook
// secret signs the svix platform events (user.created, user.deleted).
type ClerkConfig struct {
	SecretKey     string `json:"secret_key" yaml:"secret_key"`
	WebhookSecret string `json:"webhook_secret" yaml:"webhook_secret"`
}

// LocalJWTConfig holds the self-hosted HS256 verifier settings
type LocalJWTConfig struct {
	SigningKey string `json:"signing_key" yaml:"signing_key"`
	Issuer     string `json:"issuer,omitzero" yaml:"issuer"`
}

// CreditsConfig holds credit economy settings. CentsPerCredit is the fixed
// credit-to-cents conversion rate used when recording transactions.
type CreditsConfig struct {
	CentsPerCredit      int64 `json:"cents_per_credit" yaml:"cents_per_credit"`
	WelcomeBonusCredits int64 `json:"welcome_bonus_credits,omitzero" yaml:"welcome_bonus_credits"`
}

// WorkerConfig sizes the background task pools
type WorkerConfig struct {
	PoolSize   int `json:"pool_size,omitzero" yaml:"pool_size"`
	BufferSize int `json:"buffer_size,omitzero" yaml:"buffer_size"`
}

// GDPRConfig controls data-export retention and cleanup cadence
type GDPRConfig struct {
	ExportTTLHours         int `json:"export_ttl_hours,omitzero" yaml:"export_ttl_hours"`
	CleanupIntervalMinutes int `json:"cleanup_interval_minutes,omitzero" yaml:"cleanup_interval_minutes"`
}
