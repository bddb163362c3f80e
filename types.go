package authkit

import (
	"context"
	"time"
)

// UserRecord is the full account row handed over by a [UserProvider]. It
// carries the secret hash and never crosses the API boundary as-is; use
// [UserRecord.Public] for anything caller-visible.
type UserRecord struct {
	UserID       string
	Identifier   string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	CreatedAt    time.Time
}

// Public strips the credential hash and returns the caller-visible
// profile.
func (u *UserRecord) Public() PublicUser {
	return PublicUser{
		ID:         u.UserID,
		Identifier: u.Identifier,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
	}
}

// PublicUser is the profile shape returned to callers. No secret
// material ever appears here.
type PublicUser struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Role       string `json:"role"`
}

// TokenPair is one freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	User   PublicUser `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}

// RegisterInput carries a registration request. Secret is the plaintext
// credential; the engine hashes it before it reaches the provider.
type RegisterInput struct {
	Identifier string
	Secret     string
	FirstName  string
	LastName   string
}

// CreateUserInput is what the engine hands a provider after hashing the
// secret.
type CreateUserInput struct {
	Identifier   string
	PasswordHash string
	FirstName    string
	LastName     string
}

// UserProvider is the external collaborator owning user persistence. One
// explicit method per operation; absent users are a nil record, not an
// error. CreateUser returns [ErrDuplicateIdentifier] when the identifier
// is already taken.
type UserProvider interface {
	GetUserByIdentifier(ctx context.Context, identifier string) (*UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (*UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}
