package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresNotificationStore implements store.NotificationStore. Recipients
// are rows of notification_recipients; a non-null read_at marks a recipient
// as having read the notification, which keeps the read-set a subset of the
// team by construction.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgresNotificationStore.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		// ALLOW-PANIC: constructor precondition
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{db: tx, logger: s.logger}
}

const notificationSelect = `
	SELECT n.id, n.text, n.task_id, n.type, n.created_at,
	       COALESCE((SELECT json_agg(r.user_id ORDER BY r.position)
	                 FROM notification_recipients r WHERE r.notification_id = n.id), '[]'::json),
	       COALESCE((SELECT json_agg(r.user_id ORDER BY r.read_at, r.position)
	                 FROM notification_recipients r
	                 WHERE r.notification_id = n.id AND r.read_at IS NOT NULL), '[]'::json)
`

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, text, task_id, type, created_at) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.Text, nullUUID(n.TaskID), string(n.Type), n.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return MapError(err)
	}

	readAt := n.CreatedAt
	for i, userID := range n.Team {
		var read any
		if n.IsReadBy(userID) {
			read = readAt
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO notification_recipients (notification_id, user_id, position, read_at)
			 VALUES ($1, $2, $3, $4)`,
			n.ID, userID, i, read,
		)
		if err != nil {
			log.Error("failed to insert notification recipient",
				slog.String("error", err.Error()),
				slog.String("notification_id", n.ID.String()),
				slog.String("user_id", userID.String()))
			return MapError(err)
		}
	}

	log.Info("notification created",
		slog.String("notification_id", n.ID.String()),
		slog.Int("recipients", len(n.Team)),
		slog.String("type", string(n.Type)))
	return nil
}

// GetByID implements store.NotificationStore.GetByID
func (s *PostgresNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, notificationSelect+` FROM notifications n WHERE n.id = $1`, id)
	n, err := scanNotification(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("notification not found", slog.String("notification_id", id.String()))
			return nil, store.ErrNotificationNotFound
		}
		log.Error("failed to get notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return nil, MapError(err)
	}
	return n, nil
}

// MarkRead implements store.NotificationStore.MarkRead
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE notification_recipients
		SET read_at = $3
		WHERE notification_id = $1 AND user_id = $2 AND read_at IS NULL
	`, id, userID, time.Now().UTC())
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		log.Debug("notification marked read",
			slog.String("notification_id", id.String()),
			slog.String("user_id", userID.String()))
		return nil
	}

	// Nothing changed: either already read or the pair does not exist.
	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notification_recipients WHERE notification_id = $1 AND user_id = $2
		)
	`, id, userID).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrNotificationNotFound
	}
	return nil
}

// ListForUser implements store.NotificationStore.ListForUser
func (s *PostgresNotificationStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := notificationSelect + `,
	       t.id, t.title, t.status, t.due_date
	FROM notifications n
	JOIN notification_recipients me ON me.notification_id = n.id AND me.user_id = $1
	LEFT JOIN tasks t ON t.id = n.task_id
	ORDER BY n.created_at DESC, n.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	notifications := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows, true)
		if err != nil {
			log.Error("failed to scan notification row", slog.String("error", err.Error()))
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("listed notifications",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(notifications)))
	return notifications, nil
}

func scanNotification(row rowScanner, withTask bool) (*domain.Notification, error) {
	var (
		n        domain.Notification
		taskID   uuid.NullUUID
		typ      string
		team     []byte
		isRead   []byte
		tID      uuid.NullUUID
		tTitle   sql.NullString
		tStatus  sql.NullString
		tDueDate sql.NullTime
	)

	dest := []any{&n.ID, &n.Text, &taskID, &typ, &n.CreatedAt, &team, &isRead}
	if withTask {
		dest = append(dest, &tID, &tTitle, &tStatus, &tDueDate)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	n.Type = domain.NotificationType(typ)
	if taskID.Valid {
		id := taskID.UUID
		n.TaskID = &id
	}
	if err := json.Unmarshal(team, &n.Team); err != nil {
		return nil, fmt.Errorf("failed to decode notification team: %w", err)
	}
	if err := json.Unmarshal(isRead, &n.IsRead); err != nil {
		return nil, fmt.Errorf("failed to decode notification read-set: %w", err)
	}

	if withTask && tID.Valid {
		summary := &domain.TaskSummary{
			ID:     tID.UUID,
			Title:  tTitle.String,
			Status: domain.TaskStatus(tStatus.String),
		}
		if tDueDate.Valid {
			due := tDueDate.Time.UTC()
			summary.DueDate = &due
		}
		n.Task = summary
	}

	return &n, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
