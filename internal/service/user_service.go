package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// RegisterParams carries a registration request.
type RegisterParams struct {
	Name             string
	Email            string
	Password         string
	ProfileImageURL  string
	AdminInviteToken string
}

// UpdateProfileParams lists the profile fields to change. Nil leaves a
// field untouched.
type UpdateProfileParams struct {
	Name            *string
	Email           *string
	Password        *string
	ProfileImageURL *string
}

// UserService provides user account operations
type UserService interface {
	// Register creates a user. The admin role is granted only when
	// AdminInviteToken matches the configured token.
	Register(ctx context.Context, params RegisterParams) (*domain.User, error)

	// Authenticate returns the user owning email when password matches.
	// Unknown emails and wrong passwords both yield auth.ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile changes the caller's own profile. The role never changes.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (*domain.User, error)

	// ListUsersWithTaskCounts returns members with per-status task counts
	ListUsersWithTaskCounts(ctx context.Context) ([]domain.UserWithTaskCounts, error)

	// DeleteUser deletes a user by their ID
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore        store.UserStore
	verifier         auth.PasswordVerifier
	db               *sql.DB
	adminInviteToken string
	logger           *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService. An empty adminInviteToken
// disables admin self-registration.
func NewUserService(
	userStore store.UserStore,
	verifier auth.PasswordVerifier,
	db *sql.DB,
	adminInviteToken string,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if userStore == nil {
		return nil, fmt.Errorf("userStore cannot be nil")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserServiceImpl{
		userStore:        userStore,
		verifier:         verifier,
		db:               db,
		adminInviteToken: adminInviteToken,
		logger:           logger.With("component", "user_service"),
	}, nil
}

// Register creates a new user inside a transaction
func (s *UserServiceImpl) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	role := s.roleFor(params.AdminInviteToken)
	user, err := domain.NewUser(params.Name, params.Email, params.Password, role, params.ProfileImageURL)
	if err != nil {
		log.Debug("rejected invalid registration", "error", err)
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register with existing email")
		} else {
			log.Error("failed to save user to database", "error", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered",
		"user_id", user.ID,
		"role", user.Role)

	return user, nil
}

func (s *UserServiceImpl) roleFor(token string) domain.Role {
	if s.adminInviteToken == "" || token == "" {
		return domain.RoleMember
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminInviteToken)) == 1 {
		return domain.RoleAdmin
	}
	return domain.RoleMember
}

// Authenticate checks an email/password pair
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login attempt for unknown email")
			return nil, auth.ErrInvalidCredentials
		}
		log.Error("failed to retrieve user by email", "error", err)
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login attempt with wrong password", "user_id", user.ID)
		return nil, auth.ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("user not found", "user_id", userID)
		} else {
			log.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// UpdateProfile loads the user, applies the requested changes and saves it
// in one transaction.
func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	params UpdateProfileParams,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.User
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if params.Name != nil {
			user.Name = strings.TrimSpace(*params.Name)
		}
		if params.Email != nil {
			user.Email = domain.NormalizeEmail(*params.Email)
		}
		if params.ProfileImageURL != nil {
			user.ProfileImageURL = strings.TrimSpace(*params.ProfileImageURL)
		}
		if params.Password != nil {
			if *params.Password == "" {
				return domain.ErrEmptyPassword
			}
			user.Password = *params.Password
		}
		if err := user.Validate(); err != nil {
			return err
		}
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		user.Password = ""
		updated = user
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrEmailExists):
			log.Debug("rejected profile update", "error", err, "user_id", userID)
		case errors.Is(err, store.ErrUserNotFound):
			log.Debug("profile update for missing user", "user_id", userID)
		default:
			log.Error("failed to update profile", "error", err, "user_id", userID)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	log.Info("profile updated", "user_id", userID)
	return updated, nil
}

// ListUsersWithTaskCounts returns members with their task counts
func (s *UserServiceImpl) ListUsersWithTaskCounts(ctx context.Context) ([]domain.UserWithTaskCounts, error) {
	users, err := s.userStore.ListWithTaskCounts(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteUser deletes a user by their ID
// Uses a transaction to ensure atomicity of the operation
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("attempted to delete non-existent user", "user_id", userID)
		} else {
			log.Error("failed to delete user",
				"error", err,
				"user_id", userID)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted", "user_id", userID)
	return nil
}
