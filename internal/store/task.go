package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TaskFilter narrows task queries. Zero values mean "no restriction".
type TaskFilter struct {
	// AssignedTo restricts results to tasks assigned to this user.
	AssignedTo *uuid.UUID
	// Status restricts results to tasks in this status.
	Status *domain.TaskStatus
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task together with its assignees.
	// Returns store.ErrInvalidEntity if the creator or an assignee does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task, including assignees and linked notifications.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update overwrites every mutable field of an existing task and its
	// assignee set. Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task. Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns tasks matching filter, newest first.
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)

	// Recent returns at most limit tasks matching filter, newest first.
	Recent(ctx context.Context, filter TaskFilter, limit int) ([]domain.Task, error)

	// CountByStatus groups matching tasks by status. Filter.Status is ignored.
	CountByStatus(ctx context.Context, filter TaskFilter) (map[domain.TaskStatus]int, error)

	// CountByPriority groups matching tasks by priority.
	CountByPriority(ctx context.Context, filter TaskFilter) (map[domain.Priority]int, error)

	// CountOverdue counts matching tasks due before now that are not completed.
	CountOverdue(ctx context.Context, filter TaskFilter, now time.Time) (int, error)

	// AppendNotification links a notification to a task. Linking the same
	// notification twice is a no-op. Returns ErrTaskNotFound if the task
	// does not exist.
	AppendNotification(ctx context.Context, taskID, notificationID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
