package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role controls what a user may do.
type Role string

// Supported roles.
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User validation errors
var (
	ErrEmptyUserID      = validationError("user ID cannot be empty")
	ErrEmptyUserName    = validationError("name cannot be empty")
	ErrEmptyEmail       = validationError("email cannot be empty")
	ErrInvalidEmail     = validationError("invalid email format")
	ErrPasswordTooShort = validationError("password must be at least 8 characters long")
	ErrPasswordTooLong  = validationError("password must be at most 72 characters long")
	ErrEmptyPassword    = validationError("password cannot be empty")
	ErrInvalidRole      = validationError("invalid role")
)

// Password length bounds. 72 bytes is bcrypt's input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User represents a registered account.
type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Password        string    `json:"-"` // Plaintext, only set between registration and hashing
	HashedPassword  string    `json:"-"`
	Role            Role      `json:"role"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UserSummary is the subset of a user shown wherever a user is referenced
// from another entity (task assignees, notification recipients).
type UserSummary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
}

// UserWithTaskCounts decorates a user with the number of tasks they created
// or are assigned to, per status.
type UserWithTaskCounts struct {
	User
	PendingTasksCount    int `json:"pendingTasksCount"`
	InProgressTasksCount int `json:"inProgressTasksCount"`
	CompletedTasksCount  int `json:"completedTasksCount"`
}

// NewUser creates a new User with normalized name and email.
// The caller is responsible for hashing the password before storage.
func NewUser(name, email, password string, role Role, profileImageURL string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(name),
		Email:           NormalizeEmail(email),
		Password:        password,
		Role:            role,
		ProfileImageURL: strings.TrimSpace(profileImageURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims and lower-cases an email so lookups match storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Name == "" {
		return ErrEmptyUserName
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}

	// New or changed passwords arrive in plaintext; persisted users only
	// carry the hash.
	if u.Password != "" {
		if len(u.Password) < MinPasswordLength {
			return ErrPasswordTooShort
		}
		if len(u.Password) > MaxPasswordLength {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary returns the user's public summary.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}
