package mocks

import (
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// MockPasswordVerifier implements auth.PasswordVerifier for testing. It
// treats a hash as matching when it equals "hashed:" + password.
type MockPasswordVerifier struct {
	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// FakeHash returns the hash MockPasswordVerifier accepts for password.
func FakeHash(password string) string {
	return "hashed:" + password
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++
	if hashedPassword == FakeHash(password) {
		return nil
	}
	return auth.ErrInvalidCredentials
}
