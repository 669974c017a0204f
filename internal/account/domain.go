// internal/account/domain.go
package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered club-goer.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Credential holds the login state of a user.
type Credential struct {
	UserID         uuid.UUID `json:"-"`
	PasswordHash   string    `json:"-"`
	Salt           string    `json:"-"`
	FailedAttempts int       `json:"-"`
	LockedUntil    time.Time `json:"-"`
	ResetTokenHash string    `json:"-"`
	ResetExpiresAt time.Time `json:"-"`
}

// Locked reports whether the account is locked at now.
func (c Credential) Locked(now time.Time) bool {
	return !c.LockedUntil.IsZero() && c.LockedUntil.After(now)
}

// LockoutPolicy locks an account for LockFor once MaxAttempts consecutive
// logins have failed.
type LockoutPolicy struct {
	MaxAttempts int
	LockFor     time.Duration
}

// Failure applies one more failed login at now to c. A lock that has
// expired restarts the count at one. Stores use it to apply the update under
// their own atomicity.
func (p LockoutPolicy) Failure(c *Credential, now time.Time) {
	switch {
	case c.Locked(now):
		c.FailedAttempts++
		return
	case !c.LockedUntil.IsZero():
		c.FailedAttempts = 1
	default:
		c.FailedAttempts++
	}
	c.LockedUntil = time.Time{}
	if c.FailedAttempts >= p.MaxAttempts {
		c.LockedUntil = now.Add(p.LockFor)
	}
}

var (
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account temporarily locked after too many failed attempts")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidResetToken  = errors.New("password reset token is invalid or has expired")
	ErrUnauthenticated    = errors.New("authentication required")
)

// WeakPasswordError lists the password rules that failed.
type WeakPasswordError struct {
	Problems []string
}

func (e *WeakPasswordError) Error() string {
	return "password too weak: " + strings.Join(e.Problems, "; ")
}

// UserRegisteredEvent is appended when a new user signs up.
type UserRegisteredEvent struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// PasswordResetEvent is appended when a user sets a new password via reset.
type PasswordResetEvent struct {
	ID      uuid.UUID `json:"id"`
	ResetAt time.Time `json:"reset_at"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
