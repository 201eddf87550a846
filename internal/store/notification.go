package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a notification and its recipients.
	Create(ctx context.Context, n *domain.Notification) error

	// GetByID retrieves a notification with its team and read-set.
	// Returns ErrNotificationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// MarkRead records userID's acknowledgment. Already-read is a no-op.
	// Returns ErrNotificationNotFound if userID is not a recipient of an
	// existing notification or the notification does not exist.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// ListForUser returns the notifications addressed to userID, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
