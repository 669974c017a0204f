// internal/membership/service.go
package membership

import (
	"context"
	"time"
)

// Service defines the interface for the membership service.
type Service interface {
	Quote(ctx context.Context, membershipType, period string, start time.Time) (*Quote, error)
	CreateMembership(ctx context.Context, req Request) (*Record, error)
	GetMembership(ctx context.Context, id string) (*Record, error)
	History(ctx context.Context, id string) ([]HistoryEntry, error)
}

// Store is the durable record store. Implementations report failures as
// *StoreError and a missing record as ErrNotFound.
type Store interface {
	Create(ctx context.Context, rec Record) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	History(ctx context.Context, id string) ([]HistoryEntry, error)
}

// Notifier tells the member about a completed purchase.
type Notifier interface {
	MembershipConfirmed(ctx context.Context, rec Record) error
}
