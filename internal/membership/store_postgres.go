// internal/membership/store_postgres.go
package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubverse/internal/eventstore"

	"github.com/google/uuid"
)

// PostgresStore records the purchase in the event log and keeps the
// memberships table as its read model. Both are written in one transaction.
type PostgresStore struct {
	events *eventstore.EventStore
	db     *sql.DB
}

func NewPostgresStore(es *eventstore.EventStore, db *sql.DB) *PostgresStore {
	return &PostgresStore{events: es, db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (*Record, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, &StoreError{Op: "create", Err: fmt.Errorf("membership id %q: %w", rec.ID, err)}
	}

	event, err := eventstore.NewEvent("MembershipPurchased", MembershipPurchasedEvent{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Email:       rec.Email,
		Type:        rec.Type,
		Period:      rec.Period,
		StartDate:   rec.StartDate,
		EndDate:     rec.EndDate,
		TotalAmount: rec.TotalAmount,
	})
	if err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if err := s.events.AppendEventsTx(ctx, tx, id, eventstore.AggregateMembership, 0, []eventstore.Event{event}); err != nil {
		return nil, &StoreError{Op: "append event", Err: err}
	}

	query := `
		INSERT INTO memberships (id, user_id, name, email, phone, membership_type, membership_period,
			status, start_date, end_date, total_amount, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.ExecContext(ctx, query,
		id, nullUUID(rec.UserID), rec.Name, rec.Email, rec.Phone, string(rec.Type), string(rec.Period),
		string(rec.Status), rec.StartDate, rec.EndDate, rec.TotalAmount, string(rec.PaymentStatus), rec.CreatedAt,
	)
	if err != nil {
		return nil, &StoreError{Op: "insert read model", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &StoreError{Op: "commit", Err: err}
	}
	return &rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, user_id, name, email, phone, membership_type, membership_period,
			status, start_date, end_date, total_amount, payment_status, created_at
		FROM memberships
		WHERE id = $1
	`
	var (
		rec    Record
		userID sql.NullString
	)
	err = s.db.QueryRowContext(ctx, query, uid).Scan(
		&rec.ID,
		&userID,
		&rec.Name,
		&rec.Email,
		&rec.Phone,
		&rec.Type,
		&rec.Period,
		&rec.Status,
		&rec.StartDate,
		&rec.EndDate,
		&rec.TotalAmount,
		&rec.PaymentStatus,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get", Err: err}
	}
	rec.UserID = userID.String
	rec.StartDate = storedTime(rec.StartDate)
	rec.EndDate = storedTime(rec.EndDate)
	rec.CreatedAt = storedTime(rec.CreatedAt)
	return &rec, nil
}

func (s *PostgresStore) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	events, err := s.events.LoadEvents(ctx, uid, 1, 0)
	if err != nil {
		if errors.Is(err, eventstore.ErrAggregateNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "history", Err: err}
	}

	entries := make([]HistoryEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, HistoryEntry{
			Type:      e.EventType,
			Version:   e.Version,
			Data:      e.EventData,
			CreatedAt: e.CreatedAt,
		})
	}
	return entries, nil
}

func nullUUID(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
