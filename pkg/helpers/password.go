package helpers

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptySecret is returned when Hash is called with an empty string.
	ErrEmptySecret = errors.New("secret must not be empty")
	// ErrMalformedHash is returned when a stored hash is structurally
	// invalid. It signals a corrupt record, not a wrong secret.
	ErrMalformedHash = errors.New("malformed credential hash")
)

// PasswordHasher hashes and verifies login passwords and parental
// passcodes with bcrypt. Construct it explicitly and inject it into the
// services that need it; there is no package-level instance.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given bcrypt cost.
// A cost outside bcrypt's supported range falls back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash produces a salted bcrypt hash of the secret. Two calls with the
// same input produce different hashes; both verify against the input.
func (h *PasswordHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

// Verify reports whether secret matches the stored hash. A mismatch is
// (false, nil); ErrMalformedHash is returned only when the stored hash
// itself cannot be parsed. Arbitrary attacker-supplied secrets never
// produce an error.
func (h *PasswordHasher) Verify(secret, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if isMalformedHashErr(err) {
		return false, ErrMalformedHash
	}
	return false, nil
}

func isMalformedHashErr(err error) bool {
	if errors.Is(err, bcrypt.ErrHashTooShort) {
		return true
	}
	var prefixErr bcrypt.InvalidHashPrefixError
	var versionErr bcrypt.HashVersionTooNewError
	var costErr bcrypt.InvalidCostError
	return errors.As(err, &prefixErr) || errors.As(err, &versionErr) || errors.As(err, &costErr)
}
