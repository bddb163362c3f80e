// Package password provides the slow adaptive credential hasher used for
// login verification. Hashes are argon2id in PHC string format and are
// compared in constant time.
package password
