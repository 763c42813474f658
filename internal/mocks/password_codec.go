package mocks

import (
	"strings"

	"github.com/phrazzld/taskdigest-api/internal/service/auth"
)

// MockPasswordCodec implements auth.PasswordCodec with a reversible,
// instant "hash" so flow tests do not pay bcrypt's cost.
type MockPasswordCodec struct {
	HashFn func(password string) (string, error)

	// VerifyCallCount tracks how many times Verify was called.
	VerifyCallCount int
}

var _ auth.PasswordCodec = (*MockPasswordCodec)(nil)

const mockHashPrefix = "mockhash:"

// Hash implements auth.PasswordCodec.
func (m *MockPasswordCodec) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return mockHashPrefix + password, nil
}

// Verify implements auth.PasswordCodec.
func (m *MockPasswordCodec) Verify(storedHash, candidate string) bool {
	m.VerifyCallCount++
	return strings.HasPrefix(storedHash, mockHashPrefix) && storedHash == mockHashPrefix+candidate
}
