// internal/account/implementation.go
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clubverse/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	maxFailedAttempts = 5
	lockDuration      = 2 * time.Hour
	resetTokenTTL     = time.Hour
)

// service implements the Service interface.
type service struct {
	store    Store
	tokens   *TokenIssuer
	notifier Notifier
	logger   *zap.Logger
	lockout  LockoutPolicy
	now      func() time.Time
	logins   metric.Int64Counter
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

// NewService creates a new account service instance.
func NewService(store Store, tokens *TokenIssuer, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		store:  store,
		tokens: tokens,
		logger: logger,
		lockout: LockoutPolicy{
			MaxAttempts: maxFailedAttempts,
			LockFor:     lockDuration,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	logins, err := otel.Meter("clubverse/account").Int64Counter(
		"clubverse.logins",
		metric.WithDescription("Login attempts by result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		logger.Warn("login counter unavailable", zap.Error(err))
	}
	s.logins = logins
	return s
}

// Register creates a new user.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validation.Required(req); err != nil {
		return nil, err
	}
	name, err := validation.Name(req.Name)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := validation.Email(email); err != nil {
		return nil, err
	}
	if err := checkPassword(req.Password, req.ConfirmPassword, req.ConfirmPassword != ""); err != nil {
		return nil, err
	}

	hash, salt, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	}
	credential := Credential{
		UserID:       user.ID,
		PasswordHash: hash,
		Salt:         salt,
	}
	if err := s.store.Create(ctx, user, credential); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return &user, nil
}

// Authenticate verifies credentials. Five consecutive failures lock the
// account for two hours.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, cred, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.countLogin(ctx, "unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	now := s.now()
	if cred.Locked(now) {
		s.countLogin(ctx, "locked")
		return nil, ErrAccountLocked
	}

	ok, err := verifyPassword(password, cred.Salt, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, s.recordFailure(ctx, user, now)
	}

	if err := s.store.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		if errors.Is(err, ErrAccountLocked) {
			// locked by a concurrent failure after the check above
			s.countLogin(ctx, "locked")
			return nil, err
		}
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now
	s.countLogin(ctx, "success")
	return user, nil
}

func (s *service) recordFailure(ctx context.Context, user *User, now time.Time) error {
	attempts, lockedUntil, err := s.store.RecordLoginFailure(ctx, user.ID, now, s.lockout)
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	if lockedUntil.After(now) {
		if attempts == s.lockout.MaxAttempts {
			s.logger.Warn("account locked",
				zap.String("user_id", user.ID.String()),
				zap.Time("locked_until", lockedUntil),
			)
		}
		s.countLogin(ctx, "locked")
		return ErrAccountLocked
	}
	s.countLogin(ctx, "bad_password")
	return ErrInvalidCredentials
}

func (s *service) countLogin(ctx context.Context, result string) {
	if s.logins == nil {
		return
	}
	s.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (s *service) IssueToken(u User) (string, time.Time, error) {
	return s.tokens.Issue(u)
}

// UserFromToken resolves a session token to its user.
func (s *service) UserFromToken(ctx context.Context, token string) (*User, error) {
	id, _, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// ForgotPassword emails a reset token. Unknown emails succeed silently so the
// endpoint does not reveal which addresses are registered.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validation.NewFieldError("email", validation.ErrMissingField, "email is required")
	}
	if err := validation.Email(email); err != nil {
		return err
	}

	user, _, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := validation.GenerateResetToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(resetTokenTTL)
	if err := s.store.SetResetToken(ctx, user.ID, validation.HashResetToken(token), expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PasswordResetRequested(ctx, *user, token, expires); err != nil {
			s.logger.Error("password reset email failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	return nil
}

// ResetPassword replaces the password of the user owning token.
func (s *service) ResetPassword(ctx context.Context, req ResetRequest) error {
	if err := validation.Required(req); err != nil {
		return err
	}
	if err := checkPassword(req.Password, req.ConfirmPassword, true); err != nil {
		return err
	}

	user, cred, err := s.store.GetByResetToken(ctx, validation.HashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if cred.ResetExpiresAt.Before(s.now()) {
		return ErrInvalidResetToken
	}

	hash, salt, err := hashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func checkPassword(password, confirm string, compare bool) error {
	if compare {
		if err := validation.PasswordConfirmation(password, confirm); err != nil {
			return err
		}
	}
	if strength := validation.CheckPasswordStrength(password); !strength.Valid {
		return &WeakPasswordError{Problems: strength.Errors}
	}
	return nil
}
