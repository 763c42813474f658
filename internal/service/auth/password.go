package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCodec hashes and verifies credentials.
type PasswordCodec interface {
	// Hash returns a salted one-way hash of password.
	Hash(password string) (string, error)

	// Verify reports whether candidate matches storedHash. It never errors;
	// a malformed hash simply does not match.
	Verify(storedHash, candidate string) bool
}

// BcryptCodec implements PasswordCodec using bcrypt.
type BcryptCodec struct {
	cost int
}

// NewBcryptCodec creates a codec with the given cost. Costs outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func NewBcryptCodec(cost int) *BcryptCodec {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptCodec{cost: cost}
}

// Cost returns the work factor used by Hash.
func (c *BcryptCodec) Cost() int { return c.cost }

// Hash implements PasswordCodec.
func (c *BcryptCodec) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify implements PasswordCodec.
func (c *BcryptCodec) Verify(storedHash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}
