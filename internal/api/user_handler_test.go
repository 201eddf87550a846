package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserHandler(t *testing.T) {
	admin := newAdmin()
	svc := &mocks.MockUserService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })

	h := NewUserHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/api/users", h.ListUsers)
	r.Get("/api/users/{id}", h.GetUser)
	r.Delete("/api/users/{id}", h.DeleteUser)

	member := newMember()
	counts := []domain.UserWithTaskCounts{{User: *member, PendingTasksCount: 2, CompletedTasksCount: 1}}
	svc.On("ListUsersWithTaskCounts", mock.Anything).Return(counts, nil).Once()

	w := serve(r, newRequest(t, http.MethodGet, "/api/users", nil, admin))
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, float64(2), listed[0]["pendingTasksCount"])
	assert.Equal(t, member.Email, listed[0]["email"])

	svc.On("GetUser", mock.Anything, member.ID).Return(member, nil).Once()
	w = serve(r, newRequest(t, http.MethodGet, "/api/users/"+member.ID.String(), nil, admin))
	assert.Equal(t, http.StatusOK, w.Code)

	missing := uuid.New()
	svc.On("GetUser", mock.Anything, missing).Return(nil, store.ErrUserNotFound).Once()
	w = serve(r, newRequest(t, http.MethodGet, "/api/users/"+missing.String(), nil, admin))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeError(t, w))

	svc.On("DeleteUser", mock.Anything, member.ID).Return(nil).Once()
	w = serve(r, newRequest(t, http.MethodDelete, "/api/users/"+member.ID.String(), nil, admin))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("DeleteUser", mock.Anything, missing).Return(errors.New("fk violation")).Once()
	w = serve(r, newRequest(t, http.MethodDelete, "/api/users/"+missing.String(), nil, admin))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "fk violation")
}
