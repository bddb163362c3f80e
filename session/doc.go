// Package session is the Redis adapter behind refresh-token revocation.
// It owns the `refresh_token:<tokenID>` records that decide whether a
// signed refresh token is still honored, plus the `user_sessions:<subjectID>`
// index lists used for bulk revocation.
package session
