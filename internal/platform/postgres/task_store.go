package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresTaskStore implements store.TaskStore. Checklist and attachments
// are stored as JSONB; assignees and linked notifications live in join
// tables. Multi-statement writes are atomic only when the store is bound to
// a transaction with WithTx.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: constructor precondition
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date, t.created_by,
	       t.checklist, t.progress, t.attachments, t.created_at, t.updated_at,
	       COALESCE((SELECT json_agg(a.user_id ORDER BY a.position)
	                 FROM task_assignees a WHERE a.task_id = t.id), '[]'::json),
	       COALESCE((SELECT json_agg(tn.notification_id ORDER BY tn.linked_at, tn.notification_id)
	                 FROM task_notifications tn WHERE tn.task_id = t.id), '[]'::json)
	FROM tasks t
`

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	checklist, attachments, err := encodeTaskDocuments(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date, created_by,
		                   checklist, progress, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTime(task.DueDate),
		task.CreatedBy,
		checklist,
		task.Progress,
		attachments,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := s.insertAssignees(ctx, task.ID, task.AssignedTo); err != nil {
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int("assignees", len(task.AssignedTo)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	checklist, attachments, err := encodeTaskDocuments(task)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5,
		    checklist = $6, progress = $7, attachments = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTime(task.DueDate),
		checklist,
		task.Progress,
		attachments,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, task.ID); err != nil {
		log.Error("failed to clear task assignees",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	if err := s.insertAssignees(ctx, task.ID, task.AssignedTo); err != nil {
		return err
	}

	log.Info("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)),
		slog.Int("progress", task.Progress))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]domain.Task, error) {
	where, args := filterClause(filter, true)
	return s.query(ctx, taskSelect+where+` ORDER BY t.created_at DESC, t.id`, args...)
}

// Recent implements store.TaskStore.Recent
func (s *PostgresTaskStore) Recent(ctx context.Context, filter store.TaskFilter, limit int) ([]domain.Task, error) {
	if limit <= 0 {
		limit = 10
	}
	where, args := filterClause(filter, true)
	args = append(args, limit)
	query := taskSelect + where + fmt.Sprintf(` ORDER BY t.created_at DESC, t.id LIMIT $%d`, len(args))
	return s.query(ctx, query, args...)
}

// CountByStatus implements store.TaskStore.CountByStatus
func (s *PostgresTaskStore) CountByStatus(
	ctx context.Context,
	filter store.TaskFilter,
) (map[domain.TaskStatus]int, error) {
	counts := map[domain.TaskStatus]int{
		domain.StatusPending:    0,
		domain.StatusInProgress: 0,
		domain.StatusCompleted:  0,
	}
	err := s.countGrouped(ctx, "t.status", filter, func(key string, n int) {
		counts[domain.TaskStatus(key)] = n
	})
	return counts, err
}

// CountByPriority implements store.TaskStore.CountByPriority
func (s *PostgresTaskStore) CountByPriority(
	ctx context.Context,
	filter store.TaskFilter,
) (map[domain.Priority]int, error) {
	counts := map[domain.Priority]int{
		domain.PriorityLow:    0,
		domain.PriorityMedium: 0,
		domain.PriorityHigh:   0,
	}
	err := s.countGrouped(ctx, "t.priority", filter, func(key string, n int) {
		counts[domain.Priority(key)] = n
	})
	return counts, err
}

// CountOverdue implements store.TaskStore.CountOverdue
func (s *PostgresTaskStore) CountOverdue(ctx context.Context, filter store.TaskFilter, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := filterClause(filter, true)
	args = append(args, now)
	cond := fmt.Sprintf("t.due_date < $%d AND t.status <> 'Completed'", len(args))
	if where == "" {
		where = " WHERE " + cond
	} else {
		where += " AND " + cond
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&count); err != nil {
		log.Error("failed to count overdue tasks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return count, nil
}

// AppendNotification implements store.TaskStore.AppendNotification
func (s *PostgresTaskStore) AppendNotification(ctx context.Context, taskID, notificationID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_notifications (task_id, notification_id, linked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, notification_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, taskID, notificationID, time.Now().UTC())
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrTaskNotFound
		}
		log.Error("failed to link notification to task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("notification_id", notificationID.String()))
		return MapError(err)
	}
	return nil
}

func (s *PostgresTaskStore) insertAssignees(ctx context.Context, taskID uuid.UUID, assignees []uuid.UUID) error {
	for i, userID := range assignees {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id, position) VALUES ($1, $2, $3)`,
			taskID, userID, i,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: assignee %s not found", store.ErrInvalidEntity, userID)
			}
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert task assignee",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()),
				slog.String("user_id", userID.String()))
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *PostgresTaskStore) countGrouped(
	ctx context.Context,
	column string,
	filter store.TaskFilter,
	set func(key string, n int),
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := filterClause(filter, false)
	query := `SELECT ` + column + `, COUNT(*) FROM tasks t` + where + ` GROUP BY ` + column

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.String("group_by", column))
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		set(key, n)
	}
	return rows.Err()
}

// filterClause builds a WHERE clause with positional arguments starting at $1.
func filterClause(filter store.TaskFilter, withStatus bool) (string, []any) {
	var conds []string
	var args []any

	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.user_id = $%d)", len(args)))
	}
	if withStatus && filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task          domain.Task
		status        string
		priority      string
		dueDate       sql.NullTime
		checklist     []byte
		attachments   []byte
		assignedTo    []byte
		notifications []byte
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&task.CreatedBy,
		&checklist,
		&task.Progress,
		&attachments,
		&task.CreatedAt,
		&task.UpdatedAt,
		&assignedTo,
		&notifications,
	); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.Priority(priority)
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		task.DueDate = &due
	}

	for _, doc := range []struct {
		raw  []byte
		dest any
		name string
	}{
		{checklist, &task.Checklist, "checklist"},
		{attachments, &task.Attachments, "attachments"},
		{assignedTo, &task.AssignedTo, "assignees"},
		{notifications, &task.Notifications, "notifications"},
	} {
		if err := json.Unmarshal(doc.raw, doc.dest); err != nil {
			return nil, fmt.Errorf("failed to decode task %s: %w", doc.name, err)
		}
	}

	return &task, nil
}

func encodeTaskDocuments(task *domain.Task) (checklist []byte, attachments []byte, err error) {
	items := task.Checklist
	if items == nil {
		items = []domain.ChecklistItem{}
	}
	if checklist, err = json.Marshal(items); err != nil {
		return nil, nil, fmt.Errorf("failed to encode checklist: %w", err)
	}

	files := task.Attachments
	if files == nil {
		files = []string{}
	}
	if attachments, err = json.Marshal(files); err != nil {
		return nil, nil, fmt.Errorf("failed to encode attachments: %w", err)
	}
	return checklist, attachments, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
