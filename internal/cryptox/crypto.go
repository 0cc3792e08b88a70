// Package cryptox implements the credential hasher: a one-way argon2id
// transform of a plaintext password into a self-describing PHC string.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Params are the argon2id cost parameters used for new hashes. Verification
// always uses the parameters recorded in the stored hash.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams follow the OWASP argon2id recommendation.
var DefaultParams = Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Upper bounds on the cost parameters accepted from a stored hash.
const (
	maxMemoryKiB = 1024 * 1024 // 1 GiB
	maxTime      = 64
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("HASH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Hasher hashes and verifies credentials.
type Hasher interface {
	// Hash returns the encoded hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches encoded. A malformed encoded
	// hash is an error, never a match.
	Verify(password, encoded string) (bool, error)
}

// Argon2idHasher implements Hasher with argon2id.
type Argon2idHasher struct {
	params Params
}

// NewArgon2idHasher returns a hasher producing hashes with p.
func NewArgon2idHasher(p Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

// Hash produces $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the stored parameters and compares in
// constant time.
func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return false, oops.Code("HASH_INVALID").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, oops.Code("HASH_INVALID").With("algorithm", parts[1]).Errorf("unsupported hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	if version != argon2.Version {
		return false, oops.Code("HASH_INVALID").With("version", version).Errorf("unsupported argon2 version")
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	if threads == 0 || threads > 255 || time == 0 {
		return false, oops.Code("HASH_INVALID").Errorf("invalid argon2 parameters")
	}
	if memory > maxMemoryKiB || time > maxTime {
		return false, oops.Code("HASH_INVALID").With("memory", memory, "time", time).Errorf("argon2 cost out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}

	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	if len(want) == 0 || len(want) > 1024 {
		return false, oops.Code("HASH_INVALID").Errorf("invalid hash length")
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
