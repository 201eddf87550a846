package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name             string `json:"name"                       validate:"required,max=100"`
	Email            string `json:"email"                      validate:"required,email"`
	Password         string `json:"password"                   validate:"required,min=8,max=72"`
	ProfileImageURL  string `json:"profileImageUrl,omitempty"  validate:"omitempty,url"`
	AdminInviteToken string `json:"adminInviteToken,omitempty"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login: the user plus a token pair.
type AuthResponse struct {
	*domain.User

	// Token is the access token used for API authorization
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`

	// ExpiresAt is the RFC 3339 time the access token expires
	ExpiresAt string `json:"expiresAt"`
}

// UpdateProfileRequest defines the payload for PUT /api/auth/profile.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name            *string `json:"name,omitempty"            validate:"omitempty,min=1,max=100"`
	Email           *string `json:"email,omitempty"           validate:"omitempty,email"`
	Password        *string `json:"password,omitempty"        validate:"omitempty,min=8,max=72"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty" validate:"omitempty,url"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    string `json:"expiresAt"`
}

// CreateTaskRequest defines the payload for POST /api/tasks. AssignedTo must
// be present as an array; it may be empty.
type CreateTaskRequest struct {
	Title       string                   `json:"title"       validate:"required,max=200"`
	Description string                   `json:"description" validate:"max=5000"`
	Priority    domain.Priority          `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	DueDate     *time.Time               `json:"dueDate"`
	AssignedTo  []uuid.UUID              `json:"assignedTo"  validate:"required"`
	Checklist   []domain.ChecklistUpdate `json:"checklist"`
	Attachments []string                 `json:"attachments" validate:"omitempty,dive,url"`
}

// UpdateTaskRequest defines the payload for PUT /api/tasks/{id}. Omitted
// fields keep their value.
type UpdateTaskRequest struct {
	Title       *string                  `json:"title"       validate:"omitempty,max=200"`
	Description *string                  `json:"description" validate:"omitempty,max=5000"`
	Priority    *domain.Priority         `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
	DueDate     *time.Time               `json:"dueDate"`
	AssignedTo  []uuid.UUID              `json:"assignedTo"`
	Checklist   []domain.ChecklistUpdate `json:"checklist"`
	Attachments []string                 `json:"attachments" validate:"omitempty,dive,url"`
}

// UpdateStatusRequest defines the payload for PUT /api/tasks/{id}/status.
type UpdateStatusRequest struct {
	Status domain.TaskStatus `json:"status" validate:"required"`
}

// UpdateChecklistRequest defines the payload for PUT /api/tasks/{id}/checklist.
type UpdateChecklistRequest struct {
	Checklist []domain.ChecklistUpdate `json:"checklist" validate:"required"`
}

// TaskResponse wraps a single task with a confirmation message.
type TaskResponse struct {
	Message string                    `json:"message"`
	Task    *domain.TaskWithAssignees `json:"task"`
}

// CreateNotificationRequest defines the payload for POST /api/notifications.
type CreateNotificationRequest struct {
	Team   []uuid.UUID             `json:"team"   validate:"required"`
	Text   string                  `json:"text"   validate:"required"`
	TaskID *uuid.UUID              `json:"taskId"`
	Type   domain.NotificationType `json:"type"   validate:"omitempty,oneof=alert message task_update"`
}

// MarkReadRequest defines the payload for POST /api/notifications/read. The
// user ID is taken from the body, not from the caller.
type MarkReadRequest struct {
	NotificationID uuid.UUID `json:"notificationId" validate:"required"`
	UserID         uuid.UUID `json:"userId"         validate:"required"`
}

// NotificationResponse wraps a single notification with a confirmation message.
type NotificationResponse struct {
	Message      string               `json:"message"`
	Notification *domain.Notification `json:"notification"`
}
