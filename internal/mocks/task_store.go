package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore is a testify mock of store.TaskStore.
type MockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create is a mock implementation of store.TaskStore.Create
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

// GetByID is a mock implementation of store.TaskStore.GetByID. The returned
// task is a copy so the caller's mutations never leak into later calls.
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if task, ok := args.Get(0).(*domain.Task); ok && task != nil {
		clone := *task
		clone.Checklist = append([]domain.ChecklistItem(nil), task.Checklist...)
		clone.AssignedTo = append([]uuid.UUID(nil), task.AssignedTo...)
		return &clone, args.Error(1)
	}
	return nil, args.Error(1)
}

// Update is a mock implementation of store.TaskStore.Update
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

// Delete is a mock implementation of store.TaskStore.Delete
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// List is a mock implementation of store.TaskStore.List
func (m *MockTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]domain.Task, error) {
	args := m.Called(ctx, filter)
	if tasks, ok := args.Get(0).([]domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

// Recent is a mock implementation of store.TaskStore.Recent
func (m *MockTaskStore) Recent(ctx context.Context, filter store.TaskFilter, limit int) ([]domain.Task, error) {
	args := m.Called(ctx, filter, limit)
	if tasks, ok := args.Get(0).([]domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

// CountByStatus is a mock implementation of store.TaskStore.CountByStatus
func (m *MockTaskStore) CountByStatus(
	ctx context.Context,
	filter store.TaskFilter,
) (map[domain.TaskStatus]int, error) {
	args := m.Called(ctx, filter)
	if counts, ok := args.Get(0).(map[domain.TaskStatus]int); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// CountByPriority is a mock implementation of store.TaskStore.CountByPriority
func (m *MockTaskStore) CountByPriority(
	ctx context.Context,
	filter store.TaskFilter,
) (map[domain.Priority]int, error) {
	args := m.Called(ctx, filter)
	if counts, ok := args.Get(0).(map[domain.Priority]int); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// CountOverdue is a mock implementation of store.TaskStore.CountOverdue
func (m *MockTaskStore) CountOverdue(ctx context.Context, filter store.TaskFilter, now time.Time) (int, error) {
	args := m.Called(ctx, filter, now)
	return args.Int(0), args.Error(1)
}

// AppendNotification is a mock implementation of store.TaskStore.AppendNotification
func (m *MockTaskStore) AppendNotification(ctx context.Context, taskID, notificationID uuid.UUID) error {
	return m.Called(ctx, taskID, notificationID).Error(0)
}

// WithTx returns the mock itself.
func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}
