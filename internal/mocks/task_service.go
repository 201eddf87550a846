package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a testify mock of service.TaskService
type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

func taskResult(args mock.Arguments) (*domain.TaskWithAssignees, error) {
	task, _ := args.Get(0).(*domain.TaskWithAssignees)
	return task, args.Error(1)
}

// CreateTask is a mock implementation of service.TaskService.CreateTask
func (m *MockTaskService) CreateTask(
	ctx context.Context,
	caller *domain.User,
	params service.CreateTaskParams,
) (*domain.TaskWithAssignees, error) {
	return taskResult(m.Called(ctx, caller, params))
}

// GetTask is a mock implementation of service.TaskService.GetTask
func (m *MockTaskService) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.TaskWithAssignees, error) {
	return taskResult(m.Called(ctx, taskID))
}

// ListTasks is a mock implementation of service.TaskService.ListTasks
func (m *MockTaskService) ListTasks(
	ctx context.Context,
	caller *domain.User,
	status *domain.TaskStatus,
) (*service.TaskListing, error) {
	args := m.Called(ctx, caller, status)
	listing, _ := args.Get(0).(*service.TaskListing)
	return listing, args.Error(1)
}

// UpdateTask is a mock implementation of service.TaskService.UpdateTask
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	params service.UpdateTaskParams,
) (*domain.TaskWithAssignees, error) {
	return taskResult(m.Called(ctx, taskID, params))
}

// DeleteTask is a mock implementation of service.TaskService.DeleteTask
func (m *MockTaskService) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return m.Called(ctx, taskID).Error(0)
}

// UpdateStatus is a mock implementation of service.TaskService.UpdateStatus
func (m *MockTaskService) UpdateStatus(
	ctx context.Context,
	caller *domain.User,
	taskID uuid.UUID,
	status domain.TaskStatus,
) (*domain.TaskWithAssignees, error) {
	return taskResult(m.Called(ctx, caller, taskID, status))
}

// UpdateChecklist is a mock implementation of service.TaskService.UpdateChecklist
func (m *MockTaskService) UpdateChecklist(
	ctx context.Context,
	caller *domain.User,
	taskID uuid.UUID,
	items []domain.ChecklistUpdate,
) (*domain.TaskWithAssignees, error) {
	return taskResult(m.Called(ctx, caller, taskID, items))
}

// Dashboard is a mock implementation of service.TaskService.Dashboard
func (m *MockTaskService) Dashboard(ctx context.Context) (*service.Dashboard, error) {
	args := m.Called(ctx)
	dashboard, _ := args.Get(0).(*service.Dashboard)
	return dashboard, args.Error(1)
}

// UserDashboard is a mock implementation of service.TaskService.UserDashboard
func (m *MockTaskService) UserDashboard(ctx context.Context, caller *domain.User) (*service.Dashboard, error) {
	args := m.Called(ctx, caller)
	dashboard, _ := args.Get(0).(*service.Dashboard)
	return dashboard, args.Error(1)
}
