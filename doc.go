// Package authkit issues, validates, rotates, and revokes paired
// short-lived access tokens and long-lived refresh tokens for an HTTP
// API, with a Redis session store as the revocation authority for
// refresh tokens.
//
// The [Engine] orchestrates login, registration, refresh rotation,
// single- and all-session logout, and password changes over three
// collaborators: an argon2id credential verifier, an HS256 token
// issuer, and the session store. User persistence is supplied by the
// caller through [UserProvider].
//
// Background work (email delivery, data cleanup, notifications) is
// accepted through the jobs package, which writes into Redis-backed
// durable queues consumed by a separate worker process.
//
// Typical setup:
//
//	engine, err := authkit.New().
//		WithJWTSecret(secret).
//		WithRedis(rdb).
//		WithUserProvider(users).
//		Build()
package authkit
