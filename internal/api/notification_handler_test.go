package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotificationHandler(t *testing.T) (*NotificationHandler, *mocks.MockNotificationService) {
	t.Helper()
	svc := &mocks.MockNotificationService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return NewNotificationHandler(svc, nil), svc
}

func TestNotificationHandler_Create(t *testing.T) {
	admin := newAdmin()
	u1, u2 := uuid.New(), uuid.New()

	t.Run("dispatched", func(t *testing.T) {
		h, svc := newNotificationHandler(t)
		n := &domain.Notification{ID: uuid.New(), Team: []uuid.UUID{u1, u2}, Text: "Deploy", Type: domain.NotificationAlert, IsRead: []uuid.UUID{}}
		svc.On("Dispatch", mock.Anything, service.DispatchRequest{Team: []uuid.UUID{u1, u2}, Text: "Deploy"}).
			Return(n, nil).Once()

		w := serve(http.HandlerFunc(h.Create), newRequest(t, http.MethodPost, "/api/notifications",
			map[string]any{"team": []uuid.UUID{u1, u2}, "text": "Deploy"}, admin))

		require.Equal(t, http.StatusCreated, w.Code)
		var body NotificationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, n.ID, body.Notification.ID)
		assert.Empty(t, body.Notification.IsRead)
	})

	t.Run("empty team is rejected by the service", func(t *testing.T) {
		h, svc := newNotificationHandler(t)
		svc.On("Dispatch", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyTeam).Once()

		w := serve(http.HandlerFunc(h.Create), newRequest(t, http.MethodPost, "/api/notifications",
			map[string]any{"team": []uuid.UUID{}, "text": "Deploy"}, admin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "team must contain at least one recipient", decodeError(t, w))
	})

	t.Run("missing text", func(t *testing.T) {
		h, _ := newNotificationHandler(t)
		w := serve(http.HandlerFunc(h.Create), newRequest(t, http.MethodPost, "/api/notifications",
			map[string]any{"team": []uuid.UUID{u1}}, admin))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		h, _ := newNotificationHandler(t)
		w := serve(http.HandlerFunc(h.Create), newRequest(t, http.MethodPost, "/api/notifications",
			map[string]any{"team": []uuid.UUID{u1}, "text": "x", "type": "shout"}, admin))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotificationHandler_ListForCaller(t *testing.T) {
	member := newMember()
	h, svc := newNotificationHandler(t)
	list := []domain.Notification{{ID: uuid.New(), Team: []uuid.UUID{member.ID}, Text: "x", IsRead: []uuid.UUID{}}}
	svc.On("ListForUser", mock.Anything, member.ID).Return(list, nil).Once()

	w := serve(http.HandlerFunc(h.ListForCaller), newRequest(t, http.MethodGet, "/api/notifications/user", nil, member))

	require.Equal(t, http.StatusOK, w.Code)
	var body []domain.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	member := newMember()
	notificationID, userID := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		body       any
		result     *domain.Notification
		err        error
		wantStatus int
	}{
		{
			name:       "marked",
			body:       map[string]any{"notificationId": notificationID, "userId": userID},
			result:     &domain.Notification{ID: notificationID, IsRead: []uuid.UUID{userID}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			body:       map[string]any{"notificationId": notificationID, "userId": userID},
			err:        store.ErrNotificationNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "not a recipient",
			body:       map[string]any{"notificationId": notificationID, "userId": userID},
			err:        domain.ErrNotRecipient,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user id",
			body:       map[string]any{"notificationId": notificationID},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed id",
			body:       map[string]any{"notificationId": "abc", "userId": userID},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, svc := newNotificationHandler(t)
			if tc.result != nil || tc.err != nil {
				svc.On("MarkRead", mock.Anything, notificationID, userID).Return(tc.result, tc.err).Once()
			}

			w := serve(http.HandlerFunc(h.MarkRead), newRequest(t, http.MethodPost, "/api/notifications/read", tc.body, member))

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}
