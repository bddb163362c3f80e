package authkit

import (
	"context"
	"errors"
	"fmt"

	"authkit/password"
)

// Login verifies the identifier/secret pair and issues a fresh token
// pair. Unknown identifier and wrong secret both fail with
// [ErrInvalidCredentials]; callers cannot tell the cases apart.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*AuthResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.userProvider.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// A hashing error fails closed to non-match; verification is never
	// skipped.
	ok, err := e.passwordHash.Verify(secret, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	tokens, err := e.issuePair(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user.Public(), Tokens: tokens}, nil
}

// Register creates an account and logs it straight in. A taken
// identifier fails with [ErrAccountExists] and leaves the existing
// account untouched.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	existing, err := e.userProvider.GetUserByIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	hash, err := e.passwordHash.Hash(input.Secret)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, fmt.Errorf("%w: %v", ErrSecretTooShort, err)
		}
		return nil, err
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Identifier:   input.Identifier,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	})
	if err != nil {
		// Lost the pre-check race against a concurrent register.
		if errors.Is(err, ErrDuplicateIdentifier) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	tokens, err := e.issuePair(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user.Public(), Tokens: tokens}, nil
}

// ChangePassword re-verifies the current secret, persists the new hash,
// and revokes every session of the subject. Clients re-authenticate with
// the new secret afterwards.
func (e *Engine) ChangePassword(ctx context.Context, subjectID, currentSecret, newSecret string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}

	user, err := e.userProvider.GetUserByID(ctx, subjectID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	ok, err := e.passwordHash.Verify(currentSecret, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := e.passwordHash.Hash(newSecret)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return fmt.Errorf("%w: %v", ErrSecretTooShort, err)
		}
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := e.userProvider.UpdatePasswordHash(ctx, subjectID, hash); err != nil {
		return err
	}

	return e.LogoutAll(ctx, subjectID)
}
