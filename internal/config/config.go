package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Token formats.
const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel         int           `env:"LOG_LEVEL" envDefault:"0"`
	StoreBackend     string        `env:"STORE_BACKEND" envDefault:"memory"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"10s"`
	Database         Database      `envPrefix:"DATABASE_"`
	Redis            Redis         `envPrefix:"REDIS_"`
	Session          Session       `envPrefix:"SESSION_"`
	Hash             Hash          `envPrefix:"HASH_"`
	HTTP             HTTP          `envPrefix:"HTTP_"`
	GRPC             GRPC          `envPrefix:"GRPC_"`
}

// Database contains database connection parameters.
type Database struct {
	ConnectionURI string `env:"CONNECTION_URI"`
}

// Redis contains redis connection parameters.
type Redis struct {
	URL string `env:"URL"`
}

// Session contains session token parameters.
type Session struct {
	Backend                   string        `env:"BACKEND" envDefault:"memory"`
	TTLSeconds                int           `env:"TTL_SECONDS" envDefault:"86400"`
	ClockSkewToleranceSeconds int           `env:"CLOCK_SKEW_TOLERANCE_SECONDS" envDefault:"0"`
	TokenFormat               string        `env:"TOKEN_FORMAT" envDefault:"opaque"`
	JWTSecret                 string        `env:"JWT_SECRET"`
	PurgeInterval             time.Duration `env:"PURGE_INTERVAL" envDefault:"10m"`
}

// TTL returns the session lifetime.
func (s Session) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// ClockSkewTolerance returns the grace period applied to expiry checks.
func (s Session) ClockSkewTolerance() time.Duration {
	return time.Duration(s.ClockSkewToleranceSeconds) * time.Second
}

// Hash contains password hashing parameters. Cost is the bcrypt cost or the
// argon2id iteration count.
type Hash struct {
	Algorithm   string `env:"ALGORITHM" envDefault:"argon2id"`
	Cost        int    `env:"COST"`
	MemoryKiB   uint32 `env:"MEMORY_KIB"`
	Parallelism uint8  `env:"PARALLELISM"`
	Concurrency int    `env:"CONCURRENCY"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Port               string   `env:"PORT" envDefault:"5000"`
	EnableHTTPS        bool     `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string   `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string   `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// GRPC contains gRPC server parameters.
type GRPC struct {
	Enabled            bool   `env:"ENABLED" envDefault:"false"`
	Port               string `env:"PORT" envDefault:"50051"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// NewConfig loads configuration from environment variables. Variables from
// envFiles that exist are loaded first without overriding the environment.
func NewConfig(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks option values and the options each backend requires.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.Session.Backend {
	case BackendMemory, BackendPostgres:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend))
	}

	if c.usesPostgres() && c.Database.ConnectionURI == "" {
		errs = append(errs, errors.New("DATABASE_CONNECTION_URI is required for the postgres backend"))
	}

	switch c.Session.TokenFormat {
	case TokenFormatOpaque:
	case TokenFormatJWT:
		if c.Session.JWTSecret == "" {
			errs = append(errs, errors.New("SESSION_JWT_SECRET is required for the jwt token format"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_TOKEN_FORMAT %q", c.Session.TokenFormat))
	}

	if c.Session.TTLSeconds < 0 {
		errs = append(errs, errors.New("SESSION_TTL_SECONDS must not be negative"))
	}
	if c.Session.ClockSkewToleranceSeconds < 0 {
		errs = append(errs, errors.New("SESSION_CLOCK_SKEW_TOLERANCE_SECONDS must not be negative"))
	}

	switch c.Hash.Algorithm {
	case "argon2id", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("unknown HASH_ALGORITHM %q", c.Hash.Algorithm))
	}

	return errors.Join(errs...)
}

func (c *Config) usesPostgres() bool {
	return c.StoreBackend == BackendPostgres || c.Session.Backend == BackendPostgres
}
