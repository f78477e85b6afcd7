package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Tuning these only affects hashes written from
// now on, stored hashes keep verifying because the salt and digest are
// persisted together.
const (
	argonPasses uint32 = 3
	argonMemory uint32 = 64 * 1024
	argonLanes  uint8  = 4
	digestLen   uint32 = 32
	saltLen            = 16
)

var errCorruptHash = errors.New("stored password hash is corrupt")

// PasswordHash is the persisted form of a password: the argon2id
// digest and the per-user salt, both base64.
type PasswordHash struct {
	Hash string
	Salt string
}

// derive runs argon2id over the peppered password.
func derive(password, pepper string, salt []byte) []byte {
	seasoned := make([]byte, 0, len(password)+len(pepper))
	seasoned = append(seasoned, password...)
	seasoned = append(seasoned, pepper...)
	return argon2.IDKey(seasoned, salt, argonPasses, argonMemory, argonLanes, digestLen)
}

// HashPassword derives a fresh salted hash for storage.
func HashPassword(password, pepper string) (*PasswordHash, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return &PasswordHash{
		Hash: base64.RawURLEncoding.EncodeToString(derive(password, pepper, salt)),
		Salt: base64.RawURLEncoding.EncodeToString(salt),
	}, nil
}

// VerifyPassword recomputes the digest and compares in constant time.
func VerifyPassword(password, pepper string, stored *PasswordHash) (bool, error) {
	salt, err := base64.RawURLEncoding.DecodeString(stored.Salt)
	if err != nil {
		return false, errCorruptHash
	}
	want, err := base64.RawURLEncoding.DecodeString(stored.Hash)
	if err != nil {
		return false, errCorruptHash
	}
	got := derive(password, pepper, salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// ParsePasswordHash rebuilds a PasswordHash from its stored columns.
func ParsePasswordHash(hash, salt string) (*PasswordHash, error) {
	if hash == "" || salt == "" {
		return nil, errCorruptHash
	}
	return &PasswordHash{Hash: hash, Salt: salt}, nil
}
