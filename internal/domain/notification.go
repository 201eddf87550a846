package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification.
type NotificationType string

// Notification types.
const (
	NotificationAlert      NotificationType = "alert"
	NotificationMessage    NotificationType = "message"
	NotificationTaskUpdate NotificationType = "task_update"
)

// Notification validation errors
var (
	ErrEmptyNotificationID     = validationError("notification ID cannot be empty")
	ErrEmptyTeam               = validationError("team must contain at least one recipient")
	ErrInvalidRecipient        = validationError("recipient ID cannot be empty")
	ErrEmptyNotificationText   = validationError("text cannot be empty")
	ErrInvalidNotificationType = validationError("invalid notification type")
	ErrNotRecipient            = validationError("user is not a recipient of this notification")
)

// Notification is a message addressed to a team of users. IsRead lists the
// recipients that acknowledged it, in acknowledgment order.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Team      []uuid.UUID      `json:"team"`
	Text      string           `json:"text"`
	TaskID    *uuid.UUID       `json:"taskId,omitempty"`
	Type      NotificationType `json:"type"`
	IsRead    []uuid.UUID      `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`

	// Task is populated by listings for display; it is not persisted.
	Task *TaskSummary `json:"task,omitempty"`
}

// NewNotification creates a validated notification with an empty read-set.
// Duplicate recipients are collapsed and an empty type defaults to alert.
func NewNotification(
	team []uuid.UUID,
	text string,
	taskID *uuid.UUID,
	notificationType NotificationType,
) (*Notification, error) {
	if notificationType == "" {
		notificationType = NotificationAlert
	}

	n := &Notification{
		ID:        uuid.New(),
		Team:      dedupeIDs(team),
		Text:      strings.TrimSpace(text),
		TaskID:    taskID,
		Type:      notificationType,
		IsRead:    []uuid.UUID{},
		CreatedAt: time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}
	if len(n.Team) == 0 {
		return ErrEmptyTeam
	}
	for _, id := range n.Team {
		if id == uuid.Nil {
			return ErrInvalidRecipient
		}
	}
	if n.Text == "" {
		return ErrEmptyNotificationText
	}
	if !n.Type.IsValid() {
		return ErrInvalidNotificationType
	}
	for _, id := range n.IsRead {
		if !n.IsRecipient(id) {
			return ErrNotRecipient
		}
	}
	return nil
}

// IsRecipient reports whether userID is in the team.
func (n *Notification) IsRecipient(userID uuid.UUID) bool {
	for _, id := range n.Team {
		if id == userID {
			return true
		}
	}
	return false
}

// IsReadBy reports whether userID has acknowledged the notification.
func (n *Notification) IsReadBy(userID uuid.UUID) bool {
	for _, id := range n.IsRead {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkReadBy records userID's acknowledgment. It reports false when userID
// had already read the notification, in which case nothing changes.
func (n *Notification) MarkReadBy(userID uuid.UUID) (bool, error) {
	if !n.IsRecipient(userID) {
		return false, ErrNotRecipient
	}
	if n.IsReadBy(userID) {
		return false, nil
	}
	n.IsRead = append(n.IsRead, userID)
	return true, nil
}

// IsValid reports whether t is a known notification type.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationAlert, NotificationMessage, NotificationTaskUpdate:
		return true
	}
	return false
}
