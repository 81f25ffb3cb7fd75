package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port        string `env:"PORT,         default=8080"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	Auth     AuthConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	JWTSecret   string        `env:"JWT_SECRET, required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,    default=24h"`
	TokenIssuer string        `env:"TOKEN_ISSUER, default=messagely"`
	BcryptCost  int           `env:"BCRYPT_COST,  default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=messagely"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN, default=postgres://localhost:5432/messagely?sslmode=disable"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
// It panics on malformed configuration.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s: got %q",
			StoreMongo, StorePostgres, StoreMemory, c.StoreDriver)
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative: got %s", c.Auth.TokenTTL)
	}
	return nil
}
