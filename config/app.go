package config

import "time"

type App struct {
	Port        string `envconfig:"APP_PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" default:"local_dev_secret"`
	JWTTTLHours int    `envconfig:"JWT_TTL_HOURS" default:"24"`
	Env         string `envconfig:"APP_ENV" default:"dev"`

	// optional collaborators; empty disables them
	RedisAddr    string        `envconfig:"REDIS_ADDR"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"60s"`
	RabbitURL    string        `envconfig:"RABBIT_URL"`
	Exchange     string        `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`
	OTLPEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	MaxRetries        int           `envconfig:"BOOKING_MAX_RETRIES" default:"3"`
	LockTimeout       time.Duration `envconfig:"BOOKING_LOCK_TIMEOUT" default:"2s"`
	CompleteBatchSize int           `envconfig:"COMPLETE_BATCH_SIZE" default:"100"`
}
