// internal/account/store_postgres.go
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clubverse/internal/eventstore"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore keeps users in the users table and their lifecycle in the
// event log. Row changes and their events share a transaction.
type PostgresStore struct {
	events *eventstore.EventStore
	db     *sql.DB
}

func NewPostgresStore(es *eventstore.EventStore, db *sql.DB) *PostgresStore {
	return &PostgresStore{events: es, db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User, c Credential) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query, u.ID, u.Name, u.Email, c.PasswordHash, c.Salt, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}

	event, err := eventstore.NewEvent("UserRegistered", UserRegisteredEvent{ID: u.ID, Email: u.Email, Name: u.Name})
	if err != nil {
		return err
	}
	if err := s.events.AppendEventsTx(ctx, tx, u.ID, eventstore.AggregateUser, 0, []eventstore.Event{event}); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return tx.Commit()
}

const selectUser = `
	SELECT id, name, email, last_login, created_at,
		password_hash, salt, failed_attempts, locked_until, reset_token_hash, reset_expires_at
	FROM users
`

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, *Credential, error) {
	return s.getOne(ctx, selectUser+" WHERE email = $1", email)
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, _, err := s.getOne(ctx, selectUser+" WHERE id = $1", id)
	return u, err
}

func (s *PostgresStore) GetByResetToken(ctx context.Context, tokenHash string) (*User, *Credential, error) {
	return s.getOne(ctx, selectUser+" WHERE reset_token_hash = $1", tokenHash)
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg interface{}) (*User, *Credential, error) {
	var (
		u           User
		c           Credential
		lastLogin   sql.NullTime
		lockedUntil sql.NullTime
		resetHash   sql.NullString
		resetExp    sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&lastLogin,
		&u.CreatedAt,
		&c.PasswordHash,
		&c.Salt,
		&c.FailedAttempts,
		&lockedUntil,
		&resetHash,
		&resetExp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	c.UserID = u.ID
	c.LockedUntil = lockedUntil.Time
	c.ResetTokenHash = resetHash.String
	c.ResetExpiresAt = resetExp.Time
	return &u, &c, nil
}

// RecordLoginFailure increments the counter in a single UPDATE so concurrent
// failures are all counted. It mirrors LockoutPolicy.Failure.
func (s *PostgresStore) RecordLoginFailure(ctx context.Context, id uuid.UUID, now time.Time, policy LockoutPolicy) (int, time.Time, error) {
	query := `
		UPDATE users
		SET failed_attempts = CASE
				WHEN locked_until > $1::timestamptz THEN failed_attempts + 1
				WHEN locked_until IS NOT NULL THEN 1
				ELSE failed_attempts + 1
			END,
			locked_until = CASE
				WHEN locked_until > $1::timestamptz THEN locked_until
				WHEN locked_until IS NOT NULL AND 1 >= $2 THEN $3::timestamptz
				WHEN locked_until IS NULL AND failed_attempts + 1 >= $2 THEN $3::timestamptz
				ELSE NULL
			END,
			updated_at = NOW()
		WHERE id = $4
		RETURNING failed_attempts, locked_until
	`
	var (
		attempts    int
		lockedUntil sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, now, policy.MaxAttempts, now.Add(policy.LockFor), id).
		Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, time.Time{}, ErrUserNotFound
		}
		return 0, time.Time{}, err
	}
	return attempts, lockedUntil.Time, nil
}

func (s *PostgresStore) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET failed_attempts = 0, locked_until = NULL, last_login = $1, updated_at = NOW()
		WHERE id = $2 AND (locked_until IS NULL OR locked_until <= $1::timestamptz)
	`
	res, err := s.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAccountLocked
	}
	return nil
}

func (s *PostgresStore) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $1, reset_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, tokenHash, expires, id)
	return err
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt string) error {
	query := `
		UPDATE users
		SET password_hash = $1, salt = $2, reset_token_hash = NULL, reset_expires_at = NULL,
			failed_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $3
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, hash, salt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	event, err := eventstore.NewEvent("PasswordReset", PasswordResetEvent{ID: id, ResetAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := s.events.AppendTx(ctx, tx, id, eventstore.AggregateUser, event); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return tx.Commit()
}
