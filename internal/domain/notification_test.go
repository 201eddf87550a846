package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewNotification(t *testing.T) {
	t.Parallel()
	u1, u2 := uuid.New(), uuid.New()
	taskID := uuid.New()

	n, err := NewNotification([]uuid.UUID{u1, u2, u1}, "  Deadline moved  ", &taskID, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if n.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if len(n.Team) != 2 || n.Team[0] != u1 || n.Team[1] != u2 {
		t.Errorf("Expected team [u1 u2], got %v", n.Team)
	}
	if n.Text != "Deadline moved" {
		t.Errorf("Expected trimmed text, got %q", n.Text)
	}
	if n.Type != NotificationAlert {
		t.Errorf("Expected default type %s, got %s", NotificationAlert, n.Type)
	}
	if n.IsRead == nil || len(n.IsRead) != 0 {
		t.Errorf("Expected empty read-set, got %v", n.IsRead)
	}
	if n.TaskID == nil || *n.TaskID != taskID {
		t.Error("Expected task reference to be kept")
	}
	if n.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}
}

func TestNewNotification_Validation(t *testing.T) {
	t.Parallel()
	u := uuid.New()

	tests := []struct {
		name     string
		team     []uuid.UUID
		text     string
		typ      NotificationType
		expected error
	}{
		{"empty team", nil, "hello", "", ErrEmptyTeam},
		{"nil recipient", []uuid.UUID{uuid.Nil}, "hello", "", ErrInvalidRecipient},
		{"blank text", []uuid.UUID{u}, "   ", "", ErrEmptyNotificationText},
		{"unknown type", []uuid.UUID{u}, "hello", "email", ErrInvalidNotificationType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := NewNotification(tc.team, tc.text, nil, tc.typ)
			if err != tc.expected {
				t.Errorf("Expected error %v, got %v", tc.expected, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("Expected error to wrap ErrValidation")
			}
			if n != nil {
				t.Error("Expected nil notification on error")
			}
		})
	}
}

func TestMarkReadBy_Idempotent(t *testing.T) {
	t.Parallel()
	u1, u2 := uuid.New(), uuid.New()
	n, err := NewNotification([]uuid.UUID{u1, u2}, "hello", nil, NotificationMessage)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	changed, err := n.MarkReadBy(u2)
	if err != nil || !changed {
		t.Fatalf("Expected first acknowledgment to change state, got changed=%v err=%v", changed, err)
	}

	changed, err = n.MarkReadBy(u2)
	if err != nil || changed {
		t.Fatalf("Expected second acknowledgment to be a no-op, got changed=%v err=%v", changed, err)
	}

	if len(n.IsRead) != 1 || n.IsRead[0] != u2 {
		t.Errorf("Expected isRead [u2], got %v", n.IsRead)
	}
	if !n.IsReadBy(u2) || n.IsReadBy(u1) {
		t.Error("Expected only u2 to have read the notification")
	}
}

func TestMarkReadBy_NonRecipient(t *testing.T) {
	t.Parallel()
	n, err := NewNotification([]uuid.UUID{uuid.New()}, "hello", nil, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	changed, err := n.MarkReadBy(uuid.New())
	if err != ErrNotRecipient {
		t.Errorf("Expected error %v, got %v", ErrNotRecipient, err)
	}
	if changed || len(n.IsRead) != 0 {
		t.Error("Expected read-set untouched")
	}
}

func TestNotificationValidate_ReadSetSubsetOfTeam(t *testing.T) {
	t.Parallel()
	u := uuid.New()
	n := Notification{
		ID:     uuid.New(),
		Team:   []uuid.UUID{u},
		Text:   "hi",
		Type:   NotificationTaskUpdate,
		IsRead: []uuid.UUID{uuid.New()},
	}

	if err := n.Validate(); err != ErrNotRecipient {
		t.Errorf("Expected error %v, got %v", ErrNotRecipient, err)
	}

	n.IsRead = []uuid.UUID{u}
	if err := n.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
