// internal/reservation/store_postgres.go
package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubverse/internal/eventstore"

	"github.com/google/uuid"
)

type PostgresStore struct {
	events *eventstore.EventStore
	db     *sql.DB
}

func NewPostgresStore(es *eventstore.EventStore, db *sql.DB) *PostgresStore {
	return &PostgresStore{events: es, db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r Reservation) error {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return fmt.Errorf("reservation id %q: %w", r.ID, err)
	}

	query := `
		INSERT INTO reservations (id, user_id, name, email, phone, reservation_date, reservation_time,
			guests, special_requests, club, club_location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		id, nullUUID(r.UserID), r.Name, r.Email, r.Phone, r.Date, r.Time,
		r.Guests, r.SpecialRequests, r.Club, r.ClubLocation, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	event, err := eventstore.NewEvent("ReservationSubmitted", ReservationSubmittedEvent{
		ID:     r.ID,
		Email:  r.Email,
		Club:   r.Club,
		Date:   r.Date,
		Time:   r.Time,
		Guests: r.Guests,
	})
	if err != nil {
		return err
	}
	if err := s.events.AppendEventsTx(ctx, tx, id, eventstore.AggregateReservation, 0, []eventstore.Event{event}); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Reservation, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, user_id, name, email, phone, reservation_date, reservation_time,
			guests, special_requests, club, club_location, created_at
		FROM reservations
		WHERE id = $1
	`
	var (
		r      Reservation
		userID sql.NullString
	)
	err = s.db.QueryRowContext(ctx, query, uid).Scan(
		&r.ID, &userID, &r.Name, &r.Email, &r.Phone, &r.Date, &r.Time,
		&r.Guests, &r.SpecialRequests, &r.Club, &r.ClubLocation, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	r.UserID = userID.String
	return &r, nil
}

func nullUUID(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
