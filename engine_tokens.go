package authkit

import (
	"context"
	"errors"
	"fmt"

	"authkit/session"
)

// Refresh rotates a refresh token: the presented token is consumed
// atomically and a brand-new pair is issued. Every failure mode — bad
// signature, expiry, wrong kind, missing or already-consumed record,
// subject mismatch — surfaces as [ErrRefreshInvalid] with the cause
// wrapped for logging. A rotated-out token replayed later fails the
// same way.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}

	// The store record is the revocation authority: check-and-delete in
	// one step so concurrent presentations of the same token admit one
	// winner.
	if err := e.sessionStore.ConsumeRefresh(ctx, claims.TokenID, claims.Subject); err != nil {
		switch {
		case errors.Is(err, session.ErrRecordNotFound), errors.Is(err, session.ErrSubjectMismatch):
			return nil, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
		default:
			return nil, err
		}
	}

	tokens, err := e.issuePair(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Logout revokes a single session, best-effort. An invalid, expired, or
// already-revoked token is silently ignored; repeated logout with the
// same token is a no-op. Even store transport failures are swallowed
// here — the record's TTL bounds the damage.
func (e *Engine) Logout(ctx context.Context, refreshToken string) {
	if e == nil || e.sessionStore == nil {
		return
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return
	}

	_ = e.sessionStore.RemoveSession(ctx, claims.Subject, claims.TokenID)
}

// LogoutAll revokes every session of the subject: each indexed refresh
// record is deleted (expired ones as no-ops), then the index itself.
// Used after a password change and for explicit log-out-everywhere.
func (e *Engine) LogoutAll(ctx context.Context, subjectID string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	return e.sessionStore.DeleteAllForSubject(ctx, subjectID)
}

// VerifyAccess validates an access token and returns the subject's
// current public profile, or nil for any failure. It never returns an
// error: this sits on the hot path of every protected request and must
// be cheap to call speculatively. The profile is re-fetched so a role
// change since issuance is reflected immediately.
func (e *Engine) VerifyAccess(ctx context.Context, accessToken string) *PublicUser {
	if e == nil || e.userProvider == nil {
		return nil
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return nil
	}

	user, err := e.userProvider.GetUserByID(ctx, claims.Subject)
	if err != nil || user == nil {
		return nil
	}

	public := user.Public()
	return &public
}
