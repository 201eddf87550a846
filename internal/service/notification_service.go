package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PresenceRegistry resolves connected users to their live channel.
type PresenceRegistry interface {
	ChannelOf(userID uuid.UUID) (string, bool)
	Leave(channelID string) (uuid.UUID, bool)
}

// Pusher delivers a named event to one channel.
type Pusher interface {
	Push(channelID, event string, data any) error
}

// DispatchRequest describes a notification to persist and fan out.
type DispatchRequest struct {
	Team   []uuid.UUID
	Text   string
	TaskID *uuid.UUID
	Type   domain.NotificationType
}

// RealtimeNotification is the payload pushed to connected recipients.
type RealtimeNotification struct {
	*domain.Notification
	IsRealTime bool `json:"isRealTime"`
}

// NotificationService persists notifications and delivers them to recipients
// that are online.
type NotificationService interface {
	// Dispatch validates and persists a notification, pushes it to every
	// connected recipient and links it to its task. Only validation and
	// persistence failures are returned; delivery and linking are best-effort.
	Dispatch(ctx context.Context, req DispatchRequest) (*domain.Notification, error)

	// MarkRead adds userID to the notification's read-set. Marking twice is
	// a no-op.
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*domain.Notification, error)

	// ListForUser returns userID's notifications, newest first, with task
	// summaries attached.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)

	// SendDirect pushes an unpersisted message to one user's channel.
	// It returns ErrNotConnected when the user has no live channel.
	SendDirect(ctx context.Context, userID uuid.UUID, message string) error
}

type notificationServiceImpl struct {
	notificationStore store.NotificationStore
	taskStore         store.TaskStore
	presence          PresenceRegistry
	pusher            Pusher
	db                *sql.DB
	metrics           *metrics.Metrics
	logger            *slog.Logger
	now               func() time.Time
}

var _ NotificationService = (*notificationServiceImpl)(nil)

// NewNotificationService creates a new NotificationService.
// It returns an error if any of the required dependencies are nil. m may be
// nil, in which case nothing is recorded.
func NewNotificationService(
	notificationStore store.NotificationStore,
	taskStore store.TaskStore,
	presence PresenceRegistry,
	pusher Pusher,
	db *sql.DB,
	m *metrics.Metrics,
	logger *slog.Logger,
) (NotificationService, error) {
	if notificationStore == nil {
		return nil, fmt.Errorf("notificationStore cannot be nil")
	}
	if taskStore == nil {
		return nil, fmt.Errorf("taskStore cannot be nil")
	}
	if presence == nil {
		return nil, fmt.Errorf("presence cannot be nil")
	}
	if pusher == nil {
		return nil, fmt.Errorf("pusher cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &notificationServiceImpl{
		notificationStore: notificationStore,
		taskStore:         taskStore,
		presence:          presence,
		pusher:            pusher,
		db:                db,
		metrics:           m,
		logger:            logger.With(slog.String("component", "notification_service")),
		now:               time.Now,
	}, nil
}

// Dispatch implements NotificationService.Dispatch
func (s *notificationServiceImpl) Dispatch(
	ctx context.Context,
	req DispatchRequest,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	n, err := domain.NewNotification(req.Team, req.Text, req.TaskID, req.Type)
	if err != nil {
		log.Debug("rejected invalid notification", slog.String("error", err.Error()))
		return nil, err
	}
	n.CreatedAt = s.now().UTC()

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.notificationStore.WithTx(tx).Create(ctx, n)
	})
	if err != nil {
		log.Error("failed to persist notification",
			slog.String("error", redact.Error(err)),
			slog.String("notification_id", n.ID.String()))
		return nil, newNotificationError("dispatch", "failed to save notification", err)
	}
	s.metrics.NotificationCreated(string(n.Type))

	log = log.With(slog.String("notification_id", n.ID.String()))
	log.Info("notification persisted", slog.Int("recipient_count", len(n.Team)))

	s.deliver(log, n)

	if n.TaskID != nil {
		if err := s.taskStore.AppendNotification(ctx, *n.TaskID, n.ID); err != nil {
			log.Warn("failed to link notification to task",
				slog.String("error", redact.Error(err)),
				slog.String("task_id", n.TaskID.String()))
		}
	}

	return n, nil
}

// deliver pushes n to each online recipient once. A failed push closes that
// recipient's channel so later dispatches skip it until the user rejoins.
func (s *notificationServiceImpl) deliver(log *slog.Logger, n *domain.Notification) {
	payload := RealtimeNotification{Notification: n, IsRealTime: true}

	for _, userID := range n.Team {
		channelID, online := s.presence.ChannelOf(userID)
		if !online {
			s.metrics.Delivery(metrics.OutcomeDeferred)
			continue
		}

		if err := s.pusher.Push(channelID, realtime.EventNewNotification, payload); err != nil {
			s.presence.Leave(channelID)
			s.metrics.Delivery(metrics.OutcomeFailed)
			log.Warn("real-time delivery failed",
				slog.String("error", redact.Error(err)),
				slog.String("user_id", userID.String()),
				slog.String("channel_id", channelID))
			continue
		}

		s.metrics.Delivery(metrics.OutcomePushed)
		log.Debug("notification pushed",
			slog.String("user_id", userID.String()),
			slog.String("channel_id", channelID))
	}
}

// MarkRead implements NotificationService.MarkRead
func (s *notificationServiceImpl) MarkRead(
	ctx context.Context,
	notificationID, userID uuid.UUID,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("notification_id", notificationID.String()),
		slog.String("user_id", userID.String()))

	n, err := s.notificationStore.GetByID(ctx, notificationID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("notification not found")
		} else {
			log.Error("failed to load notification", slog.String("error", redact.Error(err)))
		}
		return nil, newNotificationError("mark_read", "failed to load notification", err)
	}

	changed, err := n.MarkReadBy(userID)
	if err != nil {
		log.Debug("rejected read acknowledgment", slog.String("error", err.Error()))
		return nil, err
	}
	if !changed {
		return n, nil
	}

	if err := s.notificationStore.MarkRead(ctx, notificationID, userID); err != nil {
		log.Error("failed to record read acknowledgment", slog.String("error", redact.Error(err)))
		return nil, newNotificationError("mark_read", "failed to save read acknowledgment", err)
	}

	log.Debug("notification marked as read")
	return n, nil
}

// ListForUser implements NotificationService.ListForUser
func (s *notificationServiceImpl) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]domain.Notification, error) {
	notifications, err := s.notificationStore.ListForUser(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list notifications",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return nil, newNotificationError("list", "failed to list notifications", err)
	}
	return notifications, nil
}

// SendDirect implements NotificationService.SendDirect
func (s *notificationServiceImpl) SendDirect(ctx context.Context, userID uuid.UUID, message string) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", userID.String()))

	message = strings.TrimSpace(message)
	if message == "" {
		return domain.ErrEmptyNotificationText
	}

	channelID, online := s.presence.ChannelOf(userID)
	if !online {
		log.Debug("direct message target is offline")
		return ErrNotConnected
	}

	payload := realtime.DirectMessagePayload{Message: message, Timestamp: s.now().UTC()}
	if err := s.pusher.Push(channelID, realtime.EventNewNotification, payload); err != nil {
		s.presence.Leave(channelID)
		log.Warn("direct message delivery failed", slog.String("error", redact.Error(err)))
		if errors.Is(err, realtime.ErrChannelNotFound) {
			return ErrNotConnected
		}
		return newNotificationError("send_direct", "failed to deliver message", err)
	}
	return nil
}
