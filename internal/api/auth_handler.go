package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService   service.UserService
	jwtService    auth.JWTService
	tokenLifetime time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewAuthHandler creates a new AuthHandler. tokenLifetime is only used to
// report the access token expiry to clients.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	tokenLifetime time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService:   userService,
		jwtService:    jwtService,
		tokenLifetime: tokenLifetime,
		logger:        logger.With(slog.String("component", "auth_handler")),
		now:           time.Now,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterParams{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		ProfileImageURL:  req.ProfileImageURL,
		AdminInviteToken: req.AdminInviteToken,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	h.respondWithTokens(w, r, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err,
			shared.WithElevatedLogLevel())
		return
	}

	h.respondWithTokens(w, r, http.StatusOK, user)
}

// RefreshToken handles POST /api/auth/refresh, exchanging a valid refresh
// token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	// A refresh token outliving its user must not mint new access tokens.
	if _, err := h.userService.GetUser(r.Context(), claims.UserID); err != nil {
		if MapErrorToStatusCode(err) == http.StatusNotFound {
			err = auth.ErrInvalidRefreshToken
		}
		HandleAPIError(w, r, err)
		return
	}

	access, refresh, expiresAt, ok := h.issueTokens(w, r, claims.UserID)
	if !ok {
		return
	}

	log.Debug("refreshed token pair", slog.String("user_id", claims.UserID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, ok := requireUser(w, r, log)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, service.UpdateProfileParams{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	access, refresh, expiresAt, ok := h.issueTokens(w, r, user.ID)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, status, AuthResponse{
		User:         user,
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
}

func (h *AuthHandler) issueTokens(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
) (string, string, string, bool) {
	access, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return "", "", "", false
	}
	refresh, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate refresh token", err)
		return "", "", "", false
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("issued token pair", slog.String("user_id", userID.String()))
	expiresAt := h.now().Add(h.tokenLifetime).UTC().Format(time.RFC3339)
	return access, refresh, expiresAt, true
}
