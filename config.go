package authkit

import (
	"authkit/jwt"
	"authkit/password"
)

// Config aggregates the engine's tunables. Start from [DefaultConfig]
// and override what the deployment needs; the Builder validates the rest.
type Config struct {
	JWT      jwt.Config
	Password password.Config
}

// DefaultConfig returns the stock configuration: 15-minute access
// tokens, 7-day refresh tokens, interactive argon2id costs. The JWT
// secret has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: jwt.Config{
			AccessExpiry:  "15m",
			RefreshExpiry: "7d",
		},
		Password: password.DefaultConfig(),
	}
}
