// Package config loads the authkitd runtime configuration from the
// environment.
package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the authkitd service.
type Config struct {
	Addr          string `env:"ADDR,default=:8080"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	JWTSecret     string `env:"JWT_SECRET,required"`
	AccessExpiry  string `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshExpiry string `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
	JWTIssuer     string `env:"JWT_ISSUER"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
