package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks?status=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var status *domain.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.TaskStatus(raw)
		if !s.IsValid() {
			HandleAPIError(w, r, domain.ErrInvalidStatus)
			return
		}
		status = &s
	}

	listing, err := h.taskService.ListTasks(r.Context(), user, status)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, listing)
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	_, taskID, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), user, service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		Checklist:   req.Checklist,
		Attachments: req.Attachments,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, TaskResponse{Message: "Task created successfully", Task: task})
}

// UpdateTask handles PUT /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	_, taskID, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskID, service.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		Checklist:   req.Checklist,
		Attachments: req.Attachments,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{Message: "Task updated successfully", Task: task})
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	_, taskID, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithMessage(w, r, http.StatusOK, "Task deleted successfully")
}

// UpdateStatus handles PUT /api/tasks/{id}/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, taskID, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), user, taskID, req.Status)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{Message: "Task status updated", Task: task})
}

// UpdateChecklist handles PUT /api/tasks/{id}/checklist
func (h *TaskHandler) UpdateChecklist(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, taskID, ok := handleUserAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateChecklistRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	task, err := h.taskService.UpdateChecklist(r.Context(), user, taskID, req.Checklist)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{Message: "Task checklist updated", Task: task})
}

// Dashboard handles GET /api/tasks/dashboard
func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.taskService.Dashboard(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, dashboard)
}

// UserDashboard handles GET /api/tasks/user-dashboard
func (h *TaskHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	dashboard, err := h.taskService.UserDashboard(r.Context(), user)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, dashboard)
}
