// internal/account/service.go
package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RegisterRequest is a signup form.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// ResetRequest sets a new password with a reset token.
type ResetRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Service defines the interface for the account service.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	IssueToken(u User) (string, time.Time, error)
	UserFromToken(ctx context.Context, token string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetRequest) error
}

// Store persists users and their credentials.
type Store interface {
	Create(ctx context.Context, u User, c Credential) error
	GetByEmail(ctx context.Context, email string) (*User, *Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*User, *Credential, error)
	// RecordLoginFailure atomically applies policy to the stored counter and
	// returns the resulting attempts and lock.
	RecordLoginFailure(ctx context.Context, id uuid.UUID, now time.Time, policy LockoutPolicy) (attempts int, lockedUntil time.Time, err error)
	// RecordLoginSuccess clears the counter unless the account is locked at
	// at, in which case it returns ErrAccountLocked.
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt string) error
}

// Notifier delivers account emails.
type Notifier interface {
	PasswordResetRequested(ctx context.Context, u User, token string, expires time.Time) error
}
