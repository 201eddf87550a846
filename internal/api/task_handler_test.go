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
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskRouter(t *testing.T) (http.Handler, *mocks.MockTaskService) {
	t.Helper()
	svc := &mocks.MockTaskService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })

	h := NewTaskHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/api/tasks", h.ListTasks)
	r.Get("/api/tasks/dashboard", h.Dashboard)
	r.Get("/api/tasks/user-dashboard", h.UserDashboard)
	r.Post("/api/tasks", h.CreateTask)
	r.Get("/api/tasks/{id}", h.GetTask)
	r.Put("/api/tasks/{id}", h.UpdateTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	r.Put("/api/tasks/{id}/status", h.UpdateStatus)
	r.Put("/api/tasks/{id}/checklist", h.UpdateChecklist)
	return r, svc
}

func sampleTask() *domain.TaskWithAssignees {
	return &domain.TaskWithAssignees{Task: domain.Task{
		ID:     uuid.New(),
		Title:  "Ship release",
		Status: domain.StatusPending,
	}}
}

func TestTaskHandler_ListTasks(t *testing.T) {
	member := newMember()

	t.Run("passes status filter", func(t *testing.T) {
		router, svc := newTaskRouter(t)
		inProgress := domain.StatusInProgress
		listing := &service.TaskListing{
			Tasks:         []service.TaskListItem{{TaskWithAssignees: *sampleTask(), CompletedTodoCount: 1}},
			StatusSummary: service.StatusSummary{All: 1, InProgressTasks: 1},
		}
		svc.On("ListTasks", mock.Anything, member, &inProgress).Return(listing, nil).Once()

		w := serve(router, newRequest(t, http.MethodGet, "/api/tasks?status=In%20Progress", nil, member))

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		summary := body["statusSummary"].(map[string]any)
		assert.Equal(t, float64(1), summary["inProgressTasks"])
		tasks := body["tasks"].([]any)
		assert.Equal(t, float64(1), tasks[0].(map[string]any)["completedTodoCount"])
	})

	t.Run("no filter", func(t *testing.T) {
		router, svc := newTaskRouter(t)
		svc.On("ListTasks", mock.Anything, member, (*domain.TaskStatus)(nil)).
			Return(&service.TaskListing{Tasks: []service.TaskListItem{}}, nil).Once()

		w := serve(router, newRequest(t, http.MethodGet, "/api/tasks", nil, member))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		router, _ := newTaskRouter(t)
		w := serve(router, newRequest(t, http.MethodGet, "/api/tasks?status=Done", nil, member))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_GetTask(t *testing.T) {
	member := newMember()
	task := sampleTask()

	router, svc := newTaskRouter(t)
	svc.On("GetTask", mock.Anything, task.ID).Return(task, nil).Once()
	missing := uuid.New()
	svc.On("GetTask", mock.Anything, missing).Return(nil, store.ErrTaskNotFound).Once()

	w := serve(router, newRequest(t, http.MethodGet, "/api/tasks/"+task.ID.String(), nil, member))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, newRequest(t, http.MethodGet, "/api/tasks/"+missing.String(), nil, member))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decodeError(t, w))

	w = serve(router, newRequest(t, http.MethodGet, "/api/tasks/not-a-uuid", nil, member))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_CreateTask(t *testing.T) {
	admin := newAdmin()
	assignee := uuid.New()

	t.Run("created", func(t *testing.T) {
		router, svc := newTaskRouter(t)
		task := sampleTask()
		svc.On("CreateTask", mock.Anything, admin, mock.MatchedBy(func(p service.CreateTaskParams) bool {
			return p.Title == "Ship release" && len(p.AssignedTo) == 1 && p.AssignedTo[0] == assignee &&
				len(p.Checklist) == 1 && p.Checklist[0].Text == "write notes"
		})).Return(task, nil).Once()

		w := serve(router, newRequest(t, http.MethodPost, "/api/tasks", map[string]any{
			"title":      "Ship release",
			"assignedTo": []string{assignee.String()},
			"checklist":  []map[string]any{{"text": "write notes"}},
		}, admin))

		require.Equal(t, http.StatusCreated, w.Code)
		var body TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, task.ID, body.Task.ID)
	})

	t.Run("assignedTo must be an array", func(t *testing.T) {
		router, _ := newTaskRouter(t)
		w := serve(router, newRequest(t, http.MethodPost, "/api/tasks", map[string]any{
			"title": "x", "assignedTo": assignee.String(),
		}, admin))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = serve(router, newRequest(t, http.MethodPost, "/api/tasks", map[string]any{"title": "x"}, admin))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("domain validation surfaces message", func(t *testing.T) {
		router, svc := newTaskRouter(t)
		svc.On("CreateTask", mock.Anything, admin, mock.Anything).Return(nil, domain.ErrEmptyChecklistText).Once()

		w := serve(router, newRequest(t, http.MethodPost, "/api/tasks", map[string]any{
			"title": "x", "assignedTo": []string{}, "checklist": []map[string]any{{"text": " "}},
		}, admin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "checklist item text cannot be empty", decodeError(t, w))
	})
}

func TestTaskHandler_UpdateAndDelete(t *testing.T) {
	admin := newAdmin()
	task := sampleTask()
	router, svc := newTaskRouter(t)

	svc.On("UpdateTask", mock.Anything, task.ID, mock.MatchedBy(func(p service.UpdateTaskParams) bool {
		return p.Title != nil && *p.Title == "Renamed" && p.Description == nil && p.Checklist == nil
	})).Return(task, nil).Once()
	w := serve(router, newRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String(),
		map[string]any{"title": "Renamed"}, admin))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("DeleteTask", mock.Anything, task.ID).Return(nil).Once()
	w = serve(router, newRequest(t, http.MethodDelete, "/api/tasks/"+task.ID.String(), nil, admin))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Task deleted successfully"}`, w.Body.String())
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	member := newMember()
	task := sampleTask()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "assignee", wantStatus: http.StatusOK},
		{name: "not assigned", serviceErr: service.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "invalid status", serviceErr: domain.ErrInvalidStatus, wantStatus: http.StatusBadRequest},
		{name: "store failure", serviceErr: errors.New("deadlock detected"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, svc := newTaskRouter(t)
			if tc.serviceErr != nil {
				svc.On("UpdateStatus", mock.Anything, member, task.ID, domain.StatusCompleted).
					Return(nil, tc.serviceErr).Once()
			} else {
				svc.On("UpdateStatus", mock.Anything, member, task.ID, domain.StatusCompleted).
					Return(task, nil).Once()
			}

			w := serve(router, newRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/status",
				map[string]string{"status": "Completed"}, member))

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "deadlock")
		})
	}
}

func TestTaskHandler_UpdateChecklist(t *testing.T) {
	member := newMember()
	task := sampleTask()
	router, svc := newTaskRouter(t)

	done := true
	svc.On("UpdateChecklist", mock.Anything, member, task.ID, []domain.ChecklistUpdate{
		{Text: "a", Completed: &done},
		{Text: "b"},
	}).Return(task, nil).Once()

	w := serve(router, newRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/checklist",
		`{"checklist":[{"text":"a","completed":true},{"text":"b"}]}`, member))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, newRequest(t, http.MethodPut, "/api/tasks/"+task.ID.String()+"/checklist",
		`{}`, member))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_Dashboards(t *testing.T) {
	member := newMember()
	router, svc := newTaskRouter(t)

	global := &service.Dashboard{
		Statistics: service.DashboardStatistics{TotalTasks: 4, OverdueTasks: 1},
		Charts: service.DashboardCharts{
			TaskDistribution:   map[string]int{"Pending": 2, "InProgress": 1, "Completed": 1},
			TaskPriorityLevels: map[string]int{"Low": 1, "Medium": 2, "High": 1},
		},
		RecentTasks: []service.RecentTask{},
	}
	svc.On("Dashboard", mock.Anything).Return(global, nil).Once()
	svc.On("UserDashboard", mock.Anything, member).Return(global, nil).Once()

	w := serve(router, newRequest(t, http.MethodGet, "/api/tasks/dashboard", nil, member))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	dist := body["charts"].(map[string]any)["taskDistribution"].(map[string]any)
	assert.Equal(t, float64(1), dist["InProgress"])

	w = serve(router, newRequest(t, http.MethodGet, "/api/tasks/user-dashboard", nil, member))
	assert.Equal(t, http.StatusOK, w.Code)
}
