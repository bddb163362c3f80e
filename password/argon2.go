package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrTooShort is returned by Hash for secrets below the minimum length.
// Callers can surface it as a validation failure instead of a fault.
var ErrTooShort = errors.New("password: too short")

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 6
)

// Config tunes the argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns interactive-login cost parameters (64 MiB, 3
// passes, 2 lanes).
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies secrets using argon2id with PHC-formatted
// output. Parameters are embedded in the hash string, so Verify works
// against hashes produced under older cost settings.
type Argon2 struct {
	config Config
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewArgon2 validates cfg against the package floor values and returns a
// ready hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("password: memory below %d KiB", minMemoryKB)
	case cfg.Time < minTimeCost:
		return nil, errors.New("password: time cost too low")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("password: parallelism too low")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password: salt too short")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password: key too short")
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives a fresh-salted argon2id hash and encodes it in PHC string
// format. Input bytes are used exactly as provided, no normalization.
func (a *Argon2) Hash(plain string) (string, error) {
	if len(plain) < minPassBytes {
		return "", fmt.Errorf("%w: need at least %d bytes", ErrTooShort, minPassBytes)
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(plain),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash under the parameters embedded in encoded and
// compares in constant time. A malformed or foreign-format hash returns an
// error; callers treat that as a non-match, never as a verification skip.
func (a *Argon2) Verify(plain, encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plain),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.hash)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

func parsePHC(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("password: invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("password: unsupported algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("password: missing argon2 version")
	}
	v, err := strconv.Atoi(version)
	if err != nil || v != argon2.Version {
		return nil, errors.New("password: unsupported argon2 version")
	}

	var p parsedHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.parallelism); err != nil {
		return nil, errors.New("password: invalid parameter block")
	}
	if p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, errors.New("password: zero cost parameter")
	}

	if p.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errors.New("password: invalid salt encoding")
	}
	if len(p.salt) < int(minSaltLength) {
		return nil, errors.New("password: salt too short")
	}

	if p.hash, err = base64.StdEncoding.DecodeString(parts[5]); err != nil {
		return nil, errors.New("password: invalid hash encoding")
	}
	if len(p.hash) == 0 {
		return nil, errors.New("password: empty hash")
	}

	return &p, nil
}
