package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// KindAccess is the claim value carried by access tokens.
	KindAccess = "access"
	// KindRefresh is the claim value carried by refresh tokens.
	KindRefresh = "refresh"
)

// ErrWrongKind is returned when a syntactically valid token carries the
// wrong kind claim, e.g. an access token presented to ParseRefresh.
var ErrWrongKind = errors.New("wrong token kind")

// Config holds the signing secret and the two token lifetimes.
//
// Expiry values use the compact unit grammar accepted by [ParseExpiry]
// ("15m", "7d", ...). Config instances are set up once and treated as
// immutable afterwards.
type Config struct {
	Secret        []byte
	AccessExpiry  string
	RefreshExpiry string
	Issuer        string
	Leeway        time.Duration
}

// Manager signs and verifies the access/refresh token pair. Access tokens
// are stateless; refresh tokens embed the store-side token ID so the
// session store can act as the revocation authority.
type Manager struct {
	config     Config
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Claims is the wire shape shared by both token kinds. TokenID is only
// populated on refresh tokens.
type Claims struct {
	Kind    string `json:"kind"`
	TokenID string `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready Manager. HS256 is the only
// supported signing method; the secret must be non-empty.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: signing secret required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}

	return &Manager{
		config:     cfg,
		accessTTL:  ParseExpiry(cfg.AccessExpiry),
		refreshTTL: ParseExpiry(cfg.RefreshExpiry),
	}, nil
}

// AccessTTL returns the parsed access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the parsed refresh-token lifetime. The session store
// uses the same value as the record TTL.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// SignAccess mints a stateless access token for subjectID. Validity is
// signature plus expiry only; nothing is persisted.
func (m *Manager) SignAccess(subjectID string) (string, error) {
	return m.sign(Claims{
		Kind:             KindAccess,
		RegisteredClaims: m.registered(subjectID, m.accessTTL),
	})
}

// SignRefresh mints a refresh token embedding the opaque tokenID that keys
// the store-side revocation record.
func (m *Manager) SignRefresh(subjectID, tokenID string) (string, error) {
	return m.sign(Claims{
		Kind:             KindRefresh,
		TokenID:          tokenID,
		RegisteredClaims: m.registered(subjectID, m.refreshTTL),
	})
}

// ParseAccess verifies signature, expiry, and kind of an access token.
func (m *Manager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, KindAccess)
}

// ParseRefresh verifies signature, expiry, and kind of a refresh token.
// Store-side liveness of the embedded token ID is the caller's concern.
func (m *Manager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, KindRefresh)
}

func (m *Manager) registered(subjectID string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	rc := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if m.config.Issuer != "" {
		rc.Issuer = m.config.Issuer
	}
	return rc
}

func (m *Manager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

func (m *Manager) parse(tokenStr, wantKind string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind != wantKind {
		return nil, ErrWrongKind
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
