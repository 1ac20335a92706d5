package domain

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// Role is an application role. Mentors publish and cancel slots; founders book them.
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleFounder Role = "founder"
)

// User represents a registered user.
// swagger:model User
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture,omitempty"`
	Role        Role   `json:"role"`
	StartupName string `json:"startup_name,omitempty"`
	Expertise   string `json:"expertise,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`
	// Credential is the user's calendar token snapshot, refreshed on login.
	// Only meaningful for mentors. Never serialized to API responses.
	Credential *CalendarCredential `json:"-"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Identity is the authenticated principal threaded into every engine call.
// It is resolved by the auth middleware before any slot operation runs; the
// engine never consults ambient session state.
type Identity struct {
	Email      string
	Name       string
	Role       Role
	Credential *CalendarCredential
}

// IsMentor reports whether the identity holds the mentor role.
func (i Identity) IsMentor() bool { return i.Role == RoleMentor }

// ProfileUpdate carries the fields a user may change after sign-up.
type ProfileUpdate struct {
	Role        Role
	StartupName string
	Expertise   string
	LinkedIn    string
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	// Upsert creates the user or, if the email exists, refreshes name, picture,
	// and credential. The stored role is preserved on conflict.
	Upsert(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, email string, update ProfileUpdate) (*User, error)
}

// DirectoryLookup resolves an email to a current display name. Best-effort:
// implementations return ErrUserNotFound when no record exists and callers
// fall back to names captured at slot creation or booking time.
type DirectoryLookup interface {
	FindNameByEmail(ctx context.Context, email string) (string, error)
}

// UserService defines profile operations.
type UserService interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SetupProfile updates the profile and returns the user plus a freshly
	// issued token reflecting the (possibly changed) role.
	SetupProfile(ctx context.Context, email string, update ProfileUpdate) (*User, string, error)
}

// TokenIssuer issues bearer tokens for an authenticated user.
type TokenIssuer interface {
	Issue(email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns the authenticated email.
type TokenVerifier interface {
	Verify(token string) (email string, err error)
}
