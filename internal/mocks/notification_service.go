package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockNotificationService is a testify mock of service.NotificationService
type MockNotificationService struct {
	mock.Mock
}

var _ service.NotificationService = (*MockNotificationService)(nil)

// Dispatch is a mock implementation of service.NotificationService.Dispatch
func (m *MockNotificationService) Dispatch(
	ctx context.Context,
	req service.DispatchRequest,
) (*domain.Notification, error) {
	args := m.Called(ctx, req)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}

// MarkRead is a mock implementation of service.NotificationService.MarkRead
func (m *MockNotificationService) MarkRead(
	ctx context.Context,
	notificationID, userID uuid.UUID,
) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}

// ListForUser is a mock implementation of service.NotificationService.ListForUser
func (m *MockNotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]domain.Notification)
	return list, args.Error(1)
}

// SendDirect is a mock implementation of service.NotificationService.SendDirect
func (m *MockNotificationService) SendDirect(ctx context.Context, userID uuid.UUID, message string) error {
	return m.Called(ctx, userID, message).Error(0)
}
