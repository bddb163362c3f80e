// Package postgres provides a PostgreSQL-backed authkit.UserProvider
// built on pgx. The pool is owned by the caller; the provider never
// closes it.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"authkit"
)

// pgUniqueViolation is the SQLSTATE raised when an insert hits the
// unique index on identifier.
const pgUniqueViolation = "23505"

// Provider implements authkit.UserProvider over a users table:
//
//	CREATE TABLE users (
//		id            UUID PRIMARY KEY,
//		identifier    TEXT NOT NULL UNIQUE,
//		password_hash TEXT NOT NULL,
//		first_name    TEXT NOT NULL DEFAULT '',
//		last_name     TEXT NOT NULL DEFAULT '',
//		role          TEXT NOT NULL DEFAULT 'user',
//		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Provider struct {
	pool *pgxpool.Pool
}

// NewProvider wraps an existing connection pool.
func NewProvider(pool *pgxpool.Pool) (*Provider, error) {
	if pool == nil {
		return nil, errors.New("postgres: nil pool")
	}
	return &Provider{pool: pool}, nil
}

const userColumns = `id, identifier, password_hash, first_name, last_name, role, created_at`

func (p *Provider) GetUserByIdentifier(ctx context.Context, identifier string) (*authkit.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE identifier = $1`
	return p.queryOne(ctx, query, identifier)
}

func (p *Provider) GetUserByID(ctx context.Context, userID string) (*authkit.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return p.queryOne(ctx, query, userID)
}

// CreateUser inserts the account and returns the stored row. The unique
// index on identifier is the authority on conflicts; a violation maps to
// authkit.ErrDuplicateIdentifier.
func (p *Provider) CreateUser(ctx context.Context, input authkit.CreateUserInput) (*authkit.UserRecord, error) {
	query := `
		INSERT INTO users (id, identifier, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	row := p.pool.QueryRow(ctx, query,
		uuid.NewString(), input.Identifier, input.PasswordHash, input.FirstName, input.LastName)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, authkit.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("postgres: create user: %w", err)
	}
	return user, nil
}

func (p *Provider) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, userID, newHash)
	if err != nil {
		return fmt.Errorf("postgres: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authkit.ErrUserNotFound
	}
	return nil
}

func (p *Provider) queryOne(ctx context.Context, query string, arg any) (*authkit.UserRecord, error) {
	user, err := scanUser(p.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: query user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*authkit.UserRecord, error) {
	var u authkit.UserRecord
	err := row.Scan(&u.UserID, &u.Identifier, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
