package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// recentTaskLimit is how many tasks a dashboard lists.
const recentTaskLimit = 10

// CreateTaskParams carries the fields an administrator supplies for a new task.
type CreateTaskParams struct {
	Title       string
	Description string
	Priority    domain.Priority
	DueDate     *time.Time
	AssignedTo  []uuid.UUID
	Checklist   []domain.ChecklistUpdate
	Attachments []string
}

// UpdateTaskParams carries a partial task update. Nil fields are left as they
// are; a non-nil Checklist replaces the whole checklist.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	DueDate     *time.Time
	AssignedTo  []uuid.UUID
	Checklist   []domain.ChecklistUpdate
	Attachments []string
}

// TaskListItem is a task in a listing, with its completed checklist count.
type TaskListItem struct {
	domain.TaskWithAssignees
	CompletedTodoCount int `json:"completedTodoCount"`
}

// StatusSummary counts the caller's visible tasks per status.
type StatusSummary struct {
	All             int `json:"all"`
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	CompletedTasks  int `json:"completedTasks"`
}

// TaskListing is the result of ListTasks.
type TaskListing struct {
	Tasks         []TaskListItem `json:"tasks"`
	StatusSummary StatusSummary  `json:"statusSummary"`
}

// DashboardStatistics are the headline counts of a dashboard.
type DashboardStatistics struct {
	TotalTasks     int `json:"totalTasks"`
	PendingTasks   int `json:"pendingTasks"`
	CompletedTasks int `json:"completedTasks"`
	OverdueTasks   int `json:"overdueTasks"`
}

// DashboardCharts holds distributions keyed by status (spaces removed, e.g.
// "InProgress") and by priority.
type DashboardCharts struct {
	TaskDistribution   map[string]int `json:"taskDistribution"`
	TaskPriorityLevels map[string]int `json:"taskPriorityLevels"`
}

// RecentTask is the dashboard projection of a task.
type RecentTask struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Status    domain.TaskStatus `json:"status"`
	Priority  domain.Priority   `json:"priority"`
	DueDate   *time.Time        `json:"dueDate,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Dashboard aggregates task statistics for display.
type Dashboard struct {
	Statistics  DashboardStatistics `json:"statistics"`
	Charts      DashboardCharts     `json:"charts"`
	RecentTasks []RecentTask        `json:"recentTasks"`
}

// TaskService provides task management operations.
type TaskService interface {
	// CreateTask creates a task owned by caller.
	CreateTask(ctx context.Context, caller *domain.User, params CreateTaskParams) (*domain.TaskWithAssignees, error)

	// GetTask returns a task with its assignee summaries.
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.TaskWithAssignees, error)

	// ListTasks returns every task for an admin and the assigned tasks for a
	// member, optionally narrowed to one status.
	ListTasks(ctx context.Context, caller *domain.User, status *domain.TaskStatus) (*TaskListing, error)

	// UpdateTask applies an administrator edit.
	UpdateTask(ctx context.Context, taskID uuid.UUID, params UpdateTaskParams) (*domain.TaskWithAssignees, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	// UpdateStatus sets a task's status. Only assignees and admins may do so.
	UpdateStatus(
		ctx context.Context,
		caller *domain.User,
		taskID uuid.UUID,
		status domain.TaskStatus,
	) (*domain.TaskWithAssignees, error)

	// UpdateChecklist merges checklist entries into a task and recomputes its
	// progress and status. Only assignees and admins may do so.
	UpdateChecklist(
		ctx context.Context,
		caller *domain.User,
		taskID uuid.UUID,
		items []domain.ChecklistUpdate,
	) (*domain.TaskWithAssignees, error)

	// Dashboard returns statistics over all tasks.
	Dashboard(ctx context.Context) (*Dashboard, error)

	// UserDashboard returns statistics over the tasks assigned to caller.
	UserDashboard(ctx context.Context, caller *domain.User) (*Dashboard, error)
}

type taskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	db        *sql.DB
	logger    *slog.Logger
	now       func() time.Time
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	db *sql.DB,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("taskStore cannot be nil")
	}
	if userStore == nil {
		return nil, fmt.Errorf("userStore cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		db:        db,
		logger:    logger.With(slog.String("component", "task_service")),
		now:       time.Now,
	}, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	caller *domain.User,
	params CreateTaskParams,
) (*domain.TaskWithAssignees, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(
		params.Title,
		params.Description,
		params.Priority,
		params.DueDate,
		params.AssignedTo,
		caller.ID,
		params.Checklist,
		params.Attachments,
	)
	if err != nil {
		log.Debug("rejected invalid task", slog.String("error", err.Error()))
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, newTaskError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int("assignee_count", len(task.AssignedTo)))

	return s.withAssignees(ctx, task)
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.TaskWithAssignees, error) {
	task, err := s.load(ctx, "get_task", taskID)
	if err != nil {
		return nil, err
	}
	return s.withAssignees(ctx, task)
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	caller *domain.User,
	status *domain.TaskStatus,
) (*TaskListing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if status != nil && !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	scope := scopeFor(caller)
	filter := scope
	filter.Status = status

	tasks, err := s.taskStore.List(ctx, filter)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, newTaskError("list_tasks", "failed to list tasks", err)
	}

	counts, err := s.taskStore.CountByStatus(ctx, scope)
	if err != nil {
		log.Error("failed to count tasks by status", slog.String("error", err.Error()))
		return nil, newTaskError("list_tasks", "failed to summarize tasks", err)
	}

	summaries, err := s.assigneeSummaries(ctx, tasks...)
	if err != nil {
		return nil, newTaskError("list_tasks", "failed to load assignees", err)
	}

	items := make([]TaskListItem, 0, len(tasks))
	for i := range tasks {
		items = append(items, TaskListItem{
			TaskWithAssignees:  attachAssignees(&tasks[i], summaries),
			CompletedTodoCount: tasks[i].CompletedCount(),
		})
	}

	return &TaskListing{
		Tasks: items,
		StatusSummary: StatusSummary{
			All:             counts[domain.StatusPending] + counts[domain.StatusInProgress] + counts[domain.StatusCompleted],
			PendingTasks:    counts[domain.StatusPending],
			InProgressTasks: counts[domain.StatusInProgress],
			CompletedTasks:  counts[domain.StatusCompleted],
		},
	}, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	params UpdateTaskParams,
) (*domain.TaskWithAssignees, error) {
	return s.mutate(ctx, "update_task", taskID, nil, func(task *domain.Task) error {
		if params.Title != nil {
			task.Title = strings.TrimSpace(*params.Title)
		}
		if params.Description != nil {
			task.Description = strings.TrimSpace(*params.Description)
		}
		if params.Priority != nil {
			task.Priority = *params.Priority
		}
		if params.DueDate != nil {
			task.DueDate = params.DueDate
		}
		if params.Attachments != nil {
			task.Attachments = params.Attachments
		}
		if params.AssignedTo != nil {
			if err := task.SetAssignees(params.AssignedTo); err != nil {
				return err
			}
		}
		if params.Checklist != nil {
			if err := task.ReplaceChecklist(params.Checklist); err != nil {
				return err
			}
		}
		task.UpdatedAt = s.now().UTC()
		return task.Validate()
	})
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("attempted to delete non-existent task", slog.String("task_id", taskID.String()))
		} else {
			log.Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return newTaskError("delete_task", "failed to delete task", err)
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))
	return nil
}

// UpdateStatus implements TaskService.UpdateStatus
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	caller *domain.User,
	taskID uuid.UUID,
	status domain.TaskStatus,
) (*domain.TaskWithAssignees, error) {
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.mutate(ctx, "update_status", taskID, caller, func(task *domain.Task) error {
		return task.SetStatus(status)
	})
}

// UpdateChecklist implements TaskService.UpdateChecklist
func (s *taskServiceImpl) UpdateChecklist(
	ctx context.Context,
	caller *domain.User,
	taskID uuid.UUID,
	items []domain.ChecklistUpdate,
) (*domain.TaskWithAssignees, error) {
	return s.mutate(ctx, "update_checklist", taskID, caller, func(task *domain.Task) error {
		return task.MergeChecklist(items)
	})
}

// mutate loads a task inside a transaction, authorizes caller when one is
// given, applies change and persists the result. The returned task is
// re-read after commit with assignee summaries populated.
func (s *taskServiceImpl) mutate(
	ctx context.Context,
	operation string,
	taskID uuid.UUID,
	caller *domain.User,
	change func(task *domain.Task) error,
) (*domain.TaskWithAssignees, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("operation", operation),
		slog.String("task_id", taskID.String()))

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		task, err := txStore.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		if caller != nil && !caller.IsAdmin() && !task.IsAssignee(caller.ID) {
			log.Warn("caller is neither assignee nor admin",
				slog.String("user_id", caller.ID.String()))
			return ErrForbidden
		}

		if err := change(task); err != nil {
			return err
		}

		return txStore.Update(ctx, task)
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found")
		} else if !isClientError(err) {
			log.Error("failed to update task", slog.String("error", err.Error()))
		}
		return nil, newTaskError(operation, "failed to update task", err)
	}

	log.Info("task updated")

	return s.GetTask(ctx, taskID)
}

// Dashboard implements TaskService.Dashboard
func (s *taskServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	return s.dashboard(ctx, store.TaskFilter{}, false)
}

// UserDashboard implements TaskService.UserDashboard
func (s *taskServiceImpl) UserDashboard(ctx context.Context, caller *domain.User) (*Dashboard, error) {
	userID := caller.ID
	return s.dashboard(ctx, store.TaskFilter{AssignedTo: &userID}, true)
}

func (s *taskServiceImpl) dashboard(ctx context.Context, filter store.TaskFilter, withAll bool) (*Dashboard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	byStatus, err := s.taskStore.CountByStatus(ctx, filter)
	if err != nil {
		log.Error("failed to count tasks by status", slog.String("error", err.Error()))
		return nil, newTaskError("dashboard", "failed to count tasks", err)
	}

	byPriority, err := s.taskStore.CountByPriority(ctx, filter)
	if err != nil {
		log.Error("failed to count tasks by priority", slog.String("error", err.Error()))
		return nil, newTaskError("dashboard", "failed to count tasks", err)
	}

	overdue, err := s.taskStore.CountOverdue(ctx, filter, s.now().UTC())
	if err != nil {
		log.Error("failed to count overdue tasks", slog.String("error", err.Error()))
		return nil, newTaskError("dashboard", "failed to count overdue tasks", err)
	}

	recent, err := s.taskStore.Recent(ctx, filter, recentTaskLimit)
	if err != nil {
		log.Error("failed to load recent tasks", slog.String("error", err.Error()))
		return nil, newTaskError("dashboard", "failed to load recent tasks", err)
	}

	total := 0
	distribution := make(map[string]int, 4)
	for _, status := range []domain.TaskStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted} {
		distribution[strings.ReplaceAll(string(status), " ", "")] = byStatus[status]
		total += byStatus[status]
	}
	if withAll {
		distribution["All"] = total
	}

	priorities := make(map[string]int, 3)
	for _, priority := range []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh} {
		priorities[string(priority)] = byPriority[priority]
	}

	recentTasks := make([]RecentTask, 0, len(recent))
	for _, task := range recent {
		recentTasks = append(recentTasks, RecentTask{
			ID:        task.ID,
			Title:     task.Title,
			Status:    task.Status,
			Priority:  task.Priority,
			DueDate:   task.DueDate,
			CreatedAt: task.CreatedAt,
		})
	}

	return &Dashboard{
		Statistics: DashboardStatistics{
			TotalTasks:     total,
			PendingTasks:   byStatus[domain.StatusPending],
			CompletedTasks: byStatus[domain.StatusCompleted],
			OverdueTasks:   overdue,
		},
		Charts: DashboardCharts{
			TaskDistribution:   distribution,
			TaskPriorityLevels: priorities,
		},
		RecentTasks: recentTasks,
	}, nil
}

func (s *taskServiceImpl) load(ctx context.Context, operation string, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found", slog.String("task_id", taskID.String()))
		} else {
			log.Error("failed to load task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, newTaskError(operation, "failed to load task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) withAssignees(ctx context.Context, task *domain.Task) (*domain.TaskWithAssignees, error) {
	summaries, err := s.assigneeSummaries(ctx, *task)
	if err != nil {
		return nil, newTaskError("load_assignees", "failed to load assignees", err)
	}
	result := attachAssignees(task, summaries)
	return &result, nil
}

// assigneeSummaries resolves the assignees of all tasks with one store call.
func (s *taskServiceImpl) assigneeSummaries(
	ctx context.Context,
	tasks ...domain.Task,
) (map[uuid.UUID]domain.UserSummary, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, task := range tasks {
		for _, id := range task.AssignedTo {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]domain.UserSummary{}, nil
	}

	summaries, err := s.userStore.GetSummaries(ctx, ids)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load assignee summaries",
			slog.String("error", err.Error()),
			slog.Int("assignee_count", len(ids)))
		return nil, err
	}
	return summaries, nil
}

// attachAssignees pairs a task with its assignee summaries in assignment
// order. Assignees that no longer exist are skipped.
func attachAssignees(task *domain.Task, summaries map[uuid.UUID]domain.UserSummary) domain.TaskWithAssignees {
	assignees := make([]domain.UserSummary, 0, len(task.AssignedTo))
	for _, id := range task.AssignedTo {
		if summary, ok := summaries[id]; ok {
			assignees = append(assignees, summary)
		}
	}
	return domain.TaskWithAssignees{Task: *task, Assignees: assignees}
}

// scopeFor limits members to their assigned tasks.
func scopeFor(caller *domain.User) store.TaskFilter {
	if caller.IsAdmin() {
		return store.TaskFilter{}
	}
	userID := caller.ID
	return store.TaskFilter{AssignedTo: &userID}
}
