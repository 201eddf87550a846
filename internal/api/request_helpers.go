package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/redact"
)

// getPathUUID parses the named chi URL parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// requireUser returns the authenticated caller, writing a 401 when the auth
// middleware did not run.
func requireUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*domain.User, bool) {
	user, ok := shared.UserFromContext(r.Context())
	if !ok {
		log.Warn("authenticated user not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authorized")
		return nil, false
	}
	return user, true
}

// decodeAndValidate reads a JSON body into dst and validates it, writing a
// 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		log.Debug("invalid request body", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(dst); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// handleUserAndPathUUID combines requireUser and getPathUUID.
func handleUserAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (*domain.User, uuid.UUID, bool) {
	user, ok := requireUser(w, r, log)
	if !ok {
		return nil, uuid.Nil, false
	}
	id, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter", slog.String("param_name", paramName))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid "+paramName, err)
		return nil, uuid.Nil, false
	}
	return user, id, true
}
