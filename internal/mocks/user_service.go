package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockUserService is a testify mock of service.UserService
type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

// Register is a mock implementation of service.UserService.Register
func (m *MockUserService) Register(ctx context.Context, params service.RegisterParams) (*domain.User, error) {
	args := m.Called(ctx, params)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// Authenticate is a mock implementation of service.UserService.Authenticate
func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// GetUser is a mock implementation of service.UserService.GetUser
func (m *MockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// UpdateProfile is a mock implementation of service.UserService.UpdateProfile
func (m *MockUserService) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	params service.UpdateProfileParams,
) (*domain.User, error) {
	args := m.Called(ctx, userID, params)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// ListUsersWithTaskCounts is a mock implementation of service.UserService.ListUsersWithTaskCounts
func (m *MockUserService) ListUsersWithTaskCounts(ctx context.Context) ([]domain.UserWithTaskCounts, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.UserWithTaskCounts)
	return users, args.Error(1)
}

// DeleteUser is a mock implementation of service.UserService.DeleteUser
func (m *MockUserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}
