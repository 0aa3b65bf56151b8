package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds every externally supplied setting. It is loaded once at
// process start and treated as immutable afterwards; components receive the
// slice of it they need by reference, never as ambient global state.
type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret     string        `env:"JWT_SECRET"`
	JWTExpiresIn  time.Duration `env:"JWT_EXPIRES_IN,  default=24h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL, default=10m"`

	// DefaultPageSize caps collection listings when the client sends no limit.
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE, default=100"`

	// Max attempts per window for the credential endpoints.
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT,  default=10"`
	ForgotRateLimit int           `env:"FORGOT_RATE_LIMIT, default=3"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW, default=1h"`

	Mongo MongoConfig
	Redis RedisConfig
	SMTP  SMTPConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tours"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST, default=localhost"`
	Port int    `env:"SMTP_PORT, default=1025"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
	From string `env:"SMTP_FROM, default=Tours <noreply@wandertrails.io>"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
