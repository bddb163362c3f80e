package authkit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"authkit/jwt"
	"authkit/password"
	"authkit/session"
)

// Engine is the session manager: a small state machine over credential
// verification, token issuance, rotation-on-refresh, and multi-session
// revocation. Construct one via [New] and share it; all methods are safe
// for concurrent use.
type Engine struct {
	config       Config
	jwtManager   *jwt.Manager
	passwordHash *password.Argon2
	sessionStore *session.Store
	userProvider UserProvider
}

// Ping reports session-store availability and round-trip latency, for
// health-check wiring.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessionStore.Ping(ctx)
}

// issuePair mints an access/refresh pair for subjectID. The refresh
// record is written to the store before the signed token leaves this
// function, so a token a client holds always has (or had) a record.
func (e *Engine) issuePair(ctx context.Context, subjectID string) (TokenPair, error) {
	access, err := e.jwtManager.SignAccess(subjectID)
	if err != nil {
		return TokenPair{}, err
	}

	tokenID := uuid.NewString()
	refresh, err := e.jwtManager.SignRefresh(subjectID, tokenID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := e.sessionStore.SaveRefresh(ctx, tokenID, subjectID, e.jwtManager.RefreshTTL()); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
