package reservation

import (
	"context"
	"testing"

	"clubverse/internal/eventstore"
	"clubverse/internal/storage/storagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := storagetest.DB(t)
	events := eventstore.NewEventStore(db)
	svc := NewService(NewPostgresStore(events, db), zap.NewNop())
	ctx := context.Background()

	res, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	got, err := svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Club, got.Club)
	assert.Equal(t, res.Guests, got.Guests)
	assert.Equal(t, "2024-03-09", got.Date)
	assert.Equal(t, "22:30", got.Time)
	assert.Empty(t, got.UserID)

	loaded, err := events.LoadEvents(ctx, uuid.MustParse(res.ID), 1, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ReservationSubmitted", loaded[0].EventType)

	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
