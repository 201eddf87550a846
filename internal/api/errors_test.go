package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusInternalServerError},
		{name: "invalid token", err: auth.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "wrapped credentials", err: fmt.Errorf("login: %w", auth.ErrInvalidCredentials), want: http.StatusUnauthorized},
		{name: "forbidden", err: &service.ServiceError{Service: "task", Operation: "update_status", Err: service.ErrForbidden}, want: http.StatusForbidden},
		{name: "task not found", err: fmt.Errorf("load: %w", store.ErrTaskNotFound), want: http.StatusNotFound},
		{name: "notification not found", err: store.ErrNotificationNotFound, want: http.StatusNotFound},
		{name: "email exists", err: store.ErrEmailExists, want: http.StatusConflict},
		{name: "domain validation", err: domain.ErrEmptyTitle, want: http.StatusBadRequest},
		{name: "not a recipient", err: domain.ErrNotRecipient, want: http.StatusBadRequest},
		{name: "empty body", err: shared.ErrEmptyBody, want: http.StatusBadRequest},
		{name: "unknown", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "An unexpected error occurred"},
		{name: "expired", err: auth.ErrExpiredToken, want: "Token expired"},
		{name: "credentials", err: auth.ErrInvalidCredentials, want: "Invalid email or password"},
		{name: "forbidden", err: service.ErrForbidden, want: "Not authorized to perform this action"},
		{name: "task not found", err: fmt.Errorf("x: %w", store.ErrTaskNotFound), want: "Task not found"},
		{name: "user exists", err: store.ErrEmailExists, want: "User already exists"},
		{
			name: "validation detail survives wrapping",
			err: &service.ServiceError{
				Service: "task", Operation: "update_checklist", Message: "rejected", Err: domain.ErrEmptyChecklistText,
			},
			want: "checklist item text cannot be empty",
		},
		{
			name: "internal details are hidden",
			err:  errors.New(`pq: relation "tasks" does not exist`),
			want: "An unexpected error occurred",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, "Invalid Email: invalid email format", SanitizeValidationError(err))

	err = shared.ValidateRequest(RegisterRequest{Email: "a@b.co", Password: "password123"})
	assert.Equal(t, "Invalid Name: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
