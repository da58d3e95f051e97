// Package auth implements password hashing for the user store.
//
// Two schemes coexist: the legacy 32-bit checksum carried over for
// compatibility with already-persisted user blobs, and bcrypt for
// deployments that do not need that compatibility. The legacy scheme is a
// checksum, not a secure hash; collisions and reversal are both cheap.
package auth

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeLegacy = "legacy"
	SchemeBcrypt = "bcrypt"
)

type Hasher struct {
	scheme string
	cost   int
}

func NewHasher(scheme string, bcryptCost int) *Hasher {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Hasher{scheme: scheme, cost: bcryptCost}
}

func (h *Hasher) Hash(password string) (string, error) {
	if h.scheme == SchemeBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
	return LegacyHash(password), nil
}

// Verify checks password against a stored hash of either scheme. The
// scheme is recovered from the hash itself, so a blob written before a
// scheme switch keeps verifying.
func (h *Hasher) Verify(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == LegacyHash(password)
}

// LegacyHash reproduces the original checksum bit for bit: for each UTF-16
// code unit, hash = (hash << 5) - hash + unit, wrapped to a signed 32-bit
// integer at every step. The stored form is the decimal string of the
// final value, which may be negative.
func LegacyHash(password string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(password)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	return strconv.FormatInt(int64(hash), 10)
}
