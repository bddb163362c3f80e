// Package jwt signs and verifies the paired access/refresh tokens used by
// the authkit engine. Both kinds are HS256-signed compact JWTs; refresh
// tokens additionally embed the opaque token ID that keys their
// revocation record in the session store.
package jwt
