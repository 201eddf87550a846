package mocks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService with readable, unsigned tokens of
// the form "access:<user id>" and "refresh:<user id>". Setting Err or
// ValidateErr forces the corresponding calls to fail.
type MockJWTService struct {
	Err         error
	ValidateErr error
}

var _ auth.JWTService = (*MockJWTService)(nil)

// AccessToken returns the token MockJWTService issues for userID.
func AccessToken(userID uuid.UUID) string {
	return auth.TokenTypeAccess + ":" + userID.String()
}

// RefreshToken returns the refresh token MockJWTService issues for userID.
func RefreshToken(userID uuid.UUID) string {
	return auth.TokenTypeRefresh + ":" + userID.String()
}

// GenerateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return AccessToken(userID), nil
}

// GenerateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateRefreshToken(_ context.Context, userID uuid.UUID) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return RefreshToken(userID), nil
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	return m.parse(token, auth.TokenTypeAccess, auth.ErrInvalidToken)
}

// ValidateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateRefreshToken(_ context.Context, token string) (*auth.Claims, error) {
	return m.parse(token, auth.TokenTypeRefresh, auth.ErrInvalidRefreshToken)
}

func (m *MockJWTService) parse(token, wantType string, invalid error) (*auth.Claims, error) {
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	tokenType, rawID, ok := strings.Cut(token, ":")
	if !ok {
		return nil, invalid
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, invalid
	}
	if tokenType != wantType {
		return nil, auth.ErrWrongTokenType
	}
	now := time.Now()
	return &auth.Claims{
		UserID:    userID,
		TokenType: tokenType,
		Subject:   userID.String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		ID:        uuid.NewString(),
	}, nil
}
