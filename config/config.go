package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Cache    CacheConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string   `env:"SERVER_PORT" envDefault:"8080"`
	Mode           string   `env:"GIN_MODE" envDefault:"release"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type DatabaseConfig struct {
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         int    `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Name         string `env:"DB_NAME" envDefault:"blueprint_cms"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Secret          string `env:"JWT_SECRET"`
	ExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
}

func (c JWTConfig) ExpirationDuration() time.Duration {
	if c.ExpirationHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ExpirationHours) * time.Hour
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type CacheConfig struct {
	BlueprintTTL time.Duration `env:"BLUEPRINT_CACHE_TTL" envDefault:"5m"`
	MaxCost      int64         `env:"BLUEPRINT_CACHE_MAX_COST" envDefault:"10000"`
}

// StorageConfig selects the repository backend. "memory" keeps everything in
// process and is meant for local runs and demos.
type StorageConfig struct {
	Driver         string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	SeedOnStart    bool   `env:"SEED_ON_START" envDefault:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
