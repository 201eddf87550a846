package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// NotificationHandler handles notification HTTP requests.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService service.NotificationService, logger *slog.Logger) *NotificationHandler {
	if notificationService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notificationService cannot be nil for NotificationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger.With(slog.String("component", "notification_handler")),
	}
}

// Create handles POST /api/notifications. Recipients that are online get the
// notification pushed immediately; the rest find it in their listing.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateNotificationRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	n, err := h.notificationService.Dispatch(r.Context(), service.DispatchRequest{
		Team:   req.Team,
		Text:   req.Text,
		TaskID: req.TaskID,
		Type:   req.Type,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NotificationResponse{
		Message:      "Notification created successfully",
		Notification: n,
	})
}

// ListForCaller handles GET /api/notifications/user.
func (h *NotificationHandler) ListForCaller(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListForUser(r.Context(), user.ID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}

// MarkRead handles POST /api/notifications/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req MarkReadRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	n, err := h.notificationService.MarkRead(r.Context(), req.NotificationID, req.UserID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NotificationResponse{
		Message:      "Notification marked as read",
		Notification: n,
	})
}
