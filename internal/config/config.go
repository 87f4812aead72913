package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	Version         string        `envconfig:"VERSION" default:"dev"`
	TokenSecret     string        `envconfig:"TOKEN_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"1h"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	BcryptCost      int           `envconfig:"BCRYPT_COST" default:"12"`
	PassTypeID      string        `envconfig:"PASS_TYPE_ID" default:"pass.com.passforge.generic"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
