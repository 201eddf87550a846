package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// RealtimeHandler upgrades authenticated requests to websocket channels and
// handles the events clients send on them.
type RealtimeHandler struct {
	hub                 *realtime.Hub
	registry            *realtime.Registry
	notificationService service.NotificationService
	metrics             *metrics.Metrics
	upgrader            websocket.Upgrader
	writeTimeout        time.Duration
	logger              *slog.Logger
}

// NewRealtimeHandler creates a RealtimeHandler. allowedOrigins restricts the
// browser Origin header; an empty list or "*" accepts any origin.
func NewRealtimeHandler(
	hub *realtime.Hub,
	registry *realtime.Registry,
	notificationService service.NotificationService,
	m *metrics.Metrics,
	allowedOrigins []string,
	writeTimeout time.Duration,
	logger *slog.Logger,
) *RealtimeHandler {
	if hub == nil || registry == nil || notificationService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("hub, registry and notificationService are required for RealtimeHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RealtimeHandler{
		hub:                 hub,
		registry:            registry,
		notificationService: notificationService,
		metrics:             m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		writeTimeout: writeTimeout,
		logger:       logger.With(slog.String("component", "realtime_handler")),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Serve handles GET /ws. The connection stays open until the client leaves
// or the server shuts down; its channel is then removed from presence.
func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := realtime.NewClient(conn, user.ID, h.writeTimeout, h.logger)
	h.hub.Register(client.ID, client)
	h.metrics.ConnectionOpened()
	log.Info("realtime channel opened",
		slog.String("channel_id", client.ID),
		slog.String("user_id", user.ID.String()))

	defer func() {
		h.registry.Leave(client.ID)
		h.hub.Unregister(client.ID, client)
		h.metrics.ConnectionClosed()
		log.Info("realtime channel closed", slog.String("channel_id", client.ID))
	}()

	ctx := logger.WithLogger(context.WithoutCancel(r.Context()), log)
	client.ReadLoop(r.Context(), func(evt realtime.Event) {
		h.handleEvent(ctx, client, user, evt)
	})
}

func (h *RealtimeHandler) handleEvent(ctx context.Context, client *realtime.Client, user *domain.User, evt realtime.Event) {
	switch evt.Name {
	case realtime.EventJoinUserRoom:
		h.joinUserRoom(client, user, evt.Data)
	case realtime.EventSendNotification:
		h.sendNotification(ctx, client, user, evt.Data)
	default:
		client.SendError("unknown event: " + evt.Name)
	}
}

// joinUserRoom binds the channel to the caller. The payload is the user ID,
// either as a bare JSON string or as {"userId": "..."}.
func (h *RealtimeHandler) joinUserRoom(client *realtime.Client, user *domain.User, data json.RawMessage) {
	requested, err := parseUserIDPayload(data)
	if err != nil {
		client.SendError("invalid user id")
		return
	}
	if requested != user.ID {
		h.logger.Warn("rejected join for another user",
			slog.String("channel_id", client.ID),
			slog.String("user_id", user.ID.String()))
		client.SendError("cannot join another user's room")
		return
	}
	h.registry.Join(user.ID, client.ID)
}

func (h *RealtimeHandler) sendNotification(
	ctx context.Context,
	client *realtime.Client,
	user *domain.User,
	data json.RawMessage,
) {
	if !user.IsAdmin() {
		client.SendError("only administrators can send notifications")
		return
	}

	var msg realtime.DirectMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		client.SendError("invalid send-notification payload")
		return
	}
	target, err := uuid.Parse(msg.UserID)
	if err != nil {
		client.SendError("invalid user id")
		return
	}

	err = h.notificationService.SendDirect(ctx, target, msg.Message)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotConnected):
		client.SendError("user is not connected")
	case errors.Is(err, domain.ErrValidation):
		client.SendError(GetSafeErrorMessage(err))
	default:
		client.SendError("failed to send notification")
	}
}

func parseUserIDPayload(data json.RawMessage) (uuid.UUID, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var obj struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return uuid.Nil, err
		}
		raw = obj.UserID
	}
	return uuid.Parse(raw)
}
