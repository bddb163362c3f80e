package authkit

import "errors"

var (
	// ErrInvalidCredentials is the uniform login failure. It deliberately
	// does not distinguish an unknown identifier from a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned by Register for a taken identifier.
	ErrAccountExists = errors.New("account already exists")
	// ErrUserNotFound is returned when an operation targets a subject
	// that no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshInvalid is the uniform refresh failure covering bad
	// signature, expiry, wrong kind, revoked or reused token, and
	// subject mismatch. The underlying cause is wrapped for logs but
	// callers only ever branch on this sentinel.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrSecretTooShort is returned by Register and ChangePassword when
	// the new secret fails the minimum-length floor. A validation
	// failure, not a fault.
	ErrSecretTooShort = errors.New("secret too short")
	// ErrDuplicateIdentifier is returned by UserProvider.CreateUser when
	// the identifier is already taken; the engine maps it to
	// ErrAccountExists.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
