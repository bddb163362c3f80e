package authkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"authkit/jwt"
	"authkit/password"
	"authkit/session"
)

// Builder assembles an [Engine]. Redis client, user provider, and a JWT
// secret are mandatory; everything else has defaults.
type Builder struct {
	config       Config
	redis        redis.UniversalClient
	userProvider UserProvider
	built        bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithJWTSecret sets the HS256 signing secret without touching the rest
// of the configuration.
func (b *Builder) WithJWTSecret(secret []byte) *Builder {
	b.config.JWT.Secret = secret
	return b
}

// WithRedis sets the Redis client backing the session store. The caller
// owns the client's connect/close lifecycle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the user persistence collaborator.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// Build validates the wiring and returns a ready Engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider is required")
	}

	jwtManager, err := jwt.NewManager(b.config.JWT)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(b.config.Password)
	if err != nil {
		return nil, err
	}

	b.built = true
	return &Engine{
		config:       b.config,
		jwtManager:   jwtManager,
		passwordHash: hasher,
		sessionStore: session.NewStore(b.redis),
		userProvider: b.userProvider,
	}, nil
}
