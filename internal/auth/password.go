// File: internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Hashes use the passlib pbkdf2_sha256 layout so existing rows keep working:
// $pbkdf2-sha256$<rounds>$<ab64 salt>$<ab64 checksum>
const (
	pbkdf2Ident      = "pbkdf2-sha256"
	pbkdf2Rounds     = 29000
	pbkdf2SaltSize   = 16
	pbkdf2KeySize    = 32
	pbkdf2MaxRounds  = 10_000_000
	pbkdf2FieldCount = 5
)

var errMalformedHash = errors.New("malformed password hash")

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type pbkdf2Hasher struct {
	rounds int
}

// NewPasswordHasher returns the pbkdf2-sha256 hasher.
func NewPasswordHasher() PasswordHasher {
	return &pbkdf2Hasher{rounds: pbkdf2Rounds}
}

func (h *pbkdf2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, h.rounds, pbkdf2KeySize, sha256.New)
	return fmt.Sprintf("$%s$%d$%s$%s", pbkdf2Ident, h.rounds, ab64Encode(salt), ab64Encode(key)), nil
}

// Verify never returns an error: malformed hashes simply do not match.
func (h *pbkdf2Hasher) Verify(password, encoded string) bool {
	rounds, salt, want, err := parsePBKDF2(encoded)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parsePBKDF2(encoded string) (int, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != pbkdf2FieldCount || parts[0] != "" || parts[1] != pbkdf2Ident {
		return 0, nil, nil, errMalformedHash
	}
	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds < 1 || rounds > pbkdf2MaxRounds {
		return 0, nil, nil, errMalformedHash
	}
	salt, err := ab64Decode(parts[3])
	if err != nil {
		return 0, nil, nil, errMalformedHash
	}
	key, err := ab64Decode(parts[4])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, errMalformedHash
	}
	return rounds, salt, key, nil
}

// ab64 is unpadded base64 with '.' in place of '+'.
func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(strings.TrimRight(s, "="), ".", "+"))
}
