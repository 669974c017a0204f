// internal/reservation/service.go
package reservation

import "context"

type Service interface {
	Submit(ctx context.Context, req Request) (*Reservation, error)
	Get(ctx context.Context, id string) (*Reservation, error)
}

type Store interface {
	Create(ctx context.Context, r Reservation) error
	Get(ctx context.Context, id string) (*Reservation, error)
}

// Notifier sends the booking confirmation.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, r Reservation) error
}
