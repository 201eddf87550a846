package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockNotificationStore is a testify mock of store.NotificationStore.
type MockNotificationStore struct {
	mock.Mock
}

var _ store.NotificationStore = (*MockNotificationStore)(nil)

// Create is a mock implementation of store.NotificationStore.Create
func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

// GetByID is a mock implementation of store.NotificationStore.GetByID
func (m *MockNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if n, ok := args.Get(0).(*domain.Notification); ok && n != nil {
		clone := *n
		clone.Team = append([]uuid.UUID(nil), n.Team...)
		clone.IsRead = append([]uuid.UUID{}, n.IsRead...)
		return &clone, args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead is a mock implementation of store.NotificationStore.MarkRead
func (m *MockNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

// ListForUser is a mock implementation of store.NotificationStore.ListForUser
func (m *MockNotificationStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]domain.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx returns the mock itself.
func (m *MockNotificationStore) WithTx(*sql.Tx) store.NotificationStore {
	return m
}
