package membership

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clubverse/internal/eventstore"
	"clubverse/internal/storage/storagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := storagetest.DB(t)
	store := NewPostgresStore(eventstore.NewEventStore(db), db)
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	req := validRequest()
	req.Type, req.Period = "platinum", "annually"
	req.StartDate = time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	rec, err := svc.CreateMembership(ctx, req)
	require.NoError(t, err)

	got, err := svc.GetMembership(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, TypePlatinum, got.Type)
	assert.Equal(t, Units(2500), got.TotalAmount)
	assert.True(t, got.EndDate.Equal(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, PaymentCompleted, got.PaymentStatus)

	history, err := svc.History(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "MembershipPurchased", history[0].Type)

	_, err = svc.GetMembership(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreReadBackMatchesCreate(t *testing.T) {
	db := storagetest.DB(t)
	svc := NewService(NewPostgresStore(eventstore.NewEventStore(db), db), zap.NewNop())
	ctx := context.Background()

	req := validRequest()
	req.StartDate = time.Date(2024, time.March, 3, 21, 15, 7, 987654321, time.FixedZone("IST", 5*3600+1800))
	rec, err := svc.CreateMembership(ctx, req)
	require.NoError(t, err)

	got, err := svc.GetMembership(ctx, rec.ID)
	require.NoError(t, err)

	created, err := json.Marshal(rec)
	require.NoError(t, err)
	read, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(created), string(read))
}

func TestPostgresStoreRejectsDuplicateID(t *testing.T) {
	db := storagetest.DB(t)
	store := NewPostgresStore(eventstore.NewEventStore(db), db)
	ctx := context.Background()

	rec := Record{
		ID: uuid.NewString(), Name: "Akhil", Email: "akhil@example.com", Phone: "9876543210",
		Type: TypeGold, Period: PeriodWeekly, Status: StatusActive, PaymentStatus: PaymentCompleted,
		StartDate: time.Now().UTC(), EndDate: time.Now().UTC().AddDate(0, 0, 7), TotalAmount: Units(50),
		CreatedAt: time.Now().UTC(),
	}
	_, err := store.Create(ctx, rec)
	require.NoError(t, err)

	_, err = store.Create(ctx, rec)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func TestPostgresStoreCreateIsAtomic(t *testing.T) {
	db := storagetest.DB(t)
	store := NewPostgresStore(eventstore.NewEventStore(db), db)
	ctx := context.Background()

	now := time.Now().UTC()
	rec := Record{
		ID: uuid.NewString(), Name: "Akhil", Email: "akhil@example.com", Phone: "9876543210",
		// rejected by the memberships CHECK constraint after the event is written
		Type: Type("bronze"), Period: PeriodWeekly, Status: StatusActive, PaymentStatus: PaymentCompleted,
		StartDate: now, EndDate: now.AddDate(0, 0, 7), TotalAmount: Units(50), CreatedAt: now,
	}
	_, err := store.Create(ctx, rec)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert read model", storeErr.Op)

	_, err = store.History(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound, "event must roll back with the failed insert")
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
