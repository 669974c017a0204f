// internal/chaos/injector.go
package chaos

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"clubverse/internal/membership"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrInjected is returned for deliberately failed calls.
var ErrInjected = errors.New("chaos: injected failure")

// Injector adds latency and random failures to wrapped calls.
type Injector struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64 // 0.0 to 1.0
	latency     time.Duration
	tracer      trace.Tracer
}

func NewInjector(failureRate float64, latency time.Duration, seed int64) *Injector {
	inj := &Injector{
		rng:    rand.New(rand.NewSource(seed)),
		tracer: otel.Tracer("clubverse/chaos"),
	}
	inj.Set(failureRate, latency)
	return inj
}

// Set changes the fault profile. Rates outside [0, 1] are clamped.
func (i *Injector) Set(failureRate float64, latency time.Duration) {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}
	if latency < 0 {
		latency = 0
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.failureRate = failureRate
	i.latency = latency
}

// Reset turns injection off.
func (i *Injector) Reset() {
	i.Set(0, 0)
}

// Inject waits for the configured latency, then fails with the configured
// probability. A cancelled context ends the wait early.
func (i *Injector) Inject(ctx context.Context, op string) error {
	i.mu.Lock()
	latency := i.latency
	fail := i.failureRate > 0 && i.rng.Float64() < i.failureRate
	i.mu.Unlock()

	if latency == 0 && !fail {
		return nil
	}

	ctx, span := i.tracer.Start(ctx, "chaos.inject",
		trace.WithAttributes(
			attribute.String("chaos.op", op),
			attribute.Int64("chaos.latency_ms", latency.Milliseconds()),
			attribute.Bool("chaos.fail", fail),
		),
	)
	defer span.End()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if fail {
		span.RecordError(ErrInjected)
		return ErrInjected
	}
	return nil
}

// MembershipStore wraps a membership.Store with fault injection.
type MembershipStore struct {
	next     membership.Store
	injector *Injector
}

func WrapMembershipStore(next membership.Store, injector *Injector) *MembershipStore {
	return &MembershipStore{next: next, injector: injector}
}

func (s *MembershipStore) Create(ctx context.Context, rec membership.Record) (*membership.Record, error) {
	if err := s.injector.Inject(ctx, "membership.create"); err != nil {
		return nil, &membership.StoreError{Op: "create", Err: err}
	}
	return s.next.Create(ctx, rec)
}

func (s *MembershipStore) Get(ctx context.Context, id string) (*membership.Record, error) {
	if err := s.injector.Inject(ctx, "membership.get"); err != nil {
		return nil, &membership.StoreError{Op: "get", Err: err}
	}
	return s.next.Get(ctx, id)
}

func (s *MembershipStore) History(ctx context.Context, id string) ([]membership.HistoryEntry, error) {
	if err := s.injector.Inject(ctx, "membership.history"); err != nil {
		return nil, &membership.StoreError{Op: "history", Err: err}
	}
	return s.next.History(ctx, id)
}
