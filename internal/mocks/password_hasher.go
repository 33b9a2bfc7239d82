package mocks

import (
	"errors"
	"strings"

	"github.com/phrazzld/reimburse-api/internal/service/auth"
)

// MockPasswordHasher implements auth.PasswordHasher for testing. By default it
// "hashes" by prefixing "hashed:" and compares accordingly.
type MockPasswordHasher struct {
	HashFn    func(password string) (string, error)
	CompareFn func(hashedPassword, password string) error

	// HashCallCount tracks how many times Hash was called
	HashCallCount int
	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	m.HashCallCount++
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}

// Compare implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.CompareCallCount++
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if strings.TrimPrefix(hashedPassword, "hashed:") == password {
		return nil
	}
	return errors.New("password mismatch")
}
