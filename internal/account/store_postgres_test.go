package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"clubverse/internal/eventstore"
	"clubverse/internal/storage/storagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresStoreLifecycle(t *testing.T) {
	db := storagetest.DB(t)
	events := eventstore.NewEventStore(db)
	store := NewPostgresStore(events, db)
	notifier := &recordingNotifier{}
	svc := NewService(store, NewTokenIssuer("secret", time.Hour), zap.NewNop(), WithNotifier(notifier))
	ctx := context.Background()

	email := "pg-" + uuid.NewString() + "@example.com"
	u, err := svc.Register(ctx, RegisterRequest{Name: "Anmol Singh", Email: email, Password: strongPassword})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Anmol Singh", Email: email, Password: strongPassword})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Authenticate(ctx, email, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, cred, err := store.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 1, cred.FailedAttempts)

	logged, err := svc.Authenticate(ctx, email, strongPassword)
	require.NoError(t, err)
	assert.NotNil(t, logged.LastLogin)

	got, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)

	require.NoError(t, svc.ForgotPassword(ctx, email))
	require.Len(t, notifier.sent, 1)
	require.NoError(t, svc.ResetPassword(ctx, ResetRequest{
		Token: notifier.sent[0].token, Password: "N3w$ecret", ConfirmPassword: "N3w$ecret",
	}))

	history, err := events.LoadEvents(ctx, u.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "UserRegistered", history[0].EventType)
	assert.Equal(t, "PasswordReset", history[1].EventType)

	_, err = store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresStoreConcurrentFailuresLock(t *testing.T) {
	db := storagetest.DB(t)
	store := NewPostgresStore(eventstore.NewEventStore(db), db)
	ctx := context.Background()

	id := uuid.New()
	email := "lock-" + id.String() + "@example.com"
	require.NoError(t, store.Create(ctx, User{ID: id, Name: "Lock Test", Email: email, CreatedAt: time.Now().UTC()},
		Credential{UserID: id, PasswordHash: "h", Salt: "s"}))

	now := time.Now().UTC()
	policy := LockoutPolicy{MaxAttempts: 5, LockFor: 2 * time.Hour}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.RecordLoginFailure(ctx, id, now, policy)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, cred, err := store.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 20, cred.FailedAttempts)
	assert.True(t, cred.Locked(now))
	assert.WithinDuration(t, now.Add(2*time.Hour), cred.LockedUntil, time.Second)

	assert.ErrorIs(t, store.RecordLoginSuccess(ctx, id, now), ErrAccountLocked)

	// an expired lock restarts the count
	attempts, lockedUntil, err := store.RecordLoginFailure(ctx, id, now.Add(3*time.Hour), policy)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, lockedUntil.IsZero())
}

func TestPostgresStoreCreateRollsBackWithEvent(t *testing.T) {
	db := storagetest.DB(t)
	events := eventstore.NewEventStore(db)
	store := NewPostgresStore(events, db)
	ctx := context.Background()

	id := uuid.New()
	// an event already at version 1 makes the UserRegistered append conflict
	// after the users row is inserted
	seed, err := eventstore.NewEvent("Seeded", struct{}{})
	require.NoError(t, err)
	require.NoError(t, events.AppendEvents(ctx, id, eventstore.AggregateUser, 0, []eventstore.Event{seed}))

	email := "atomic-" + id.String() + "@example.com"
	err = store.Create(ctx, User{ID: id, Name: "Atomic", Email: email, CreatedAt: time.Now().UTC()},
		Credential{UserID: id, PasswordHash: "h", Salt: "s"})
	require.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)

	_, _, err = store.GetByEmail(ctx, email)
	assert.ErrorIs(t, err, ErrUserNotFound, "users row must roll back with the failed append")
}
