// internal/membership/implementation.go
package membership

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
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// service implements the Service interface.
type service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	tracer  trace.Tracer
	created metric.Int64Counter
}

// Option customises a service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(s *service) { s.newID = newID }
}

// WithNotifier sends a confirmation for every created membership.
func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

// NewService creates a new membership service instance.
func NewService(store Store, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		tracer: otel.Tracer("clubverse/membership"),
	}
	for _, opt := range opts {
		opt(s)
	}

	created, err := otel.Meter("clubverse/membership").Int64Counter(
		"clubverse.memberships.created",
		metric.WithDescription("Memberships created, by persistence path"),
		metric.WithUnit("{membership}"),
	)
	if err != nil {
		logger.Warn("membership counter unavailable", zap.Error(err))
	}
	s.created = created
	return s
}

// Quote prices a membership without creating it. A zero start means now.
func (s *service) Quote(ctx context.Context, membershipType, period string, start time.Time) (*Quote, error) {
	t, p, err := parseEnums(membershipType, period)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = s.now()
	}
	q, err := Compute(t, p, start)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateMembership validates the request, prices it and stores it. When the
// durable store fails the same record is returned from memory; only
// validation failures are reported as errors.
func (s *service) CreateMembership(ctx context.Context, req Request) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "membership.create")
	defer span.End()

	if err := validateRequest(req); err != nil {
		span.SetAttributes(attribute.Bool("validation.failed", true))
		return nil, err
	}

	t, p := Type(req.Type), Period(req.Period)
	start := req.StartDate
	if start.IsZero() {
		start = s.now()
	}
	span.SetAttributes(
		attribute.String("membership.type", string(t)),
		attribute.String("membership.period", string(p)),
	)

	rec, err := s.newRecord(req, t, p, start)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Create(ctx, *rec)
	if err != nil {
		rec, err = s.degradedRecord(ctx, req, t, p, start, err)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Bool("membership.degraded", true))
	} else {
		rec = stored
		s.count(ctx, "durable")
	}

	if s.notifier != nil {
		if err := s.notifier.MembershipConfirmed(ctx, *rec); err != nil {
			s.logger.Error("membership confirmation email failed",
				zap.String("membership_id", rec.ID),
				zap.String("email", rec.Email),
				zap.Error(err),
			)
		}
	}

	return rec, nil
}

// degradedRecord rebuilds the record in memory after a failed durable write.
// The quote is recomputed rather than recovered from the failed attempt.
func (s *service) degradedRecord(ctx context.Context, req Request, t Type, p Period, start time.Time, cause error) (*Record, error) {
	fields := []zap.Field{
		zap.String("membership_type", string(t)),
		zap.String("membership_period", string(p)),
		zap.Error(cause),
	}
	var storeErr *StoreError
	if errors.As(cause, &storeErr) {
		fields = append(fields, zap.String("op", storeErr.Op))
	}
	s.logger.Warn("membership store unavailable, continuing with in-memory record", fields...)

	rec, err := s.newRecord(req, t, p, start)
	if err != nil {
		return nil, err
	}
	s.count(ctx, "degraded")
	return rec, nil
}

// newRecord is the single constructor for durable and in-memory records.
func (s *service) newRecord(req Request, t Type, p Period, start time.Time) (*Record, error) {
	q, err := Compute(t, p, start)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:            s.newID(),
		UserID:        req.UserID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Type:          t,
		Period:        p,
		Status:        StatusActive,
		StartDate:     storedTime(q.StartDate),
		EndDate:       storedTime(q.EndDate),
		TotalAmount:   q.TotalAmount,
		PaymentStatus: PaymentCompleted,
		CreatedAt:     storedTime(s.now()),
	}, nil
}

// storedTime is t as a timestamptz column gives it back: UTC, microseconds.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func (s *service) count(ctx context.Context, path string) {
	if s.created == nil {
		return
	}
	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

// GetMembership returns a durably stored membership.
func (s *service) GetMembership(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return rec, nil
}

// History lists the events recorded for a durable membership.
func (s *service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	entries, err := s.store.History(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load membership history: %w", err)
	}
	return entries, nil
}

func validateRequest(req Request) error {
	if err := validation.Required(req); err != nil {
		return err
	}
	if err := validation.Email(req.Email); err != nil {
		return err
	}
	if err := validation.Phone(req.Phone); err != nil {
		return err
	}
	_, _, err := parseEnums(req.Type, req.Period)
	return err
}

func parseEnums(membershipType, period string) (Type, Period, error) {
	t, p := Type(membershipType), Period(period)
	if !t.Valid() {
		return "", "", validation.NewFieldError("membershipType", ErrInvalidEnum,
			fmt.Sprintf("membershipType must be one of %v", Types))
	}
	if !p.Valid() {
		return "", "", validation.NewFieldError("membershipPeriod", ErrInvalidEnum,
			fmt.Sprintf("membershipPeriod must be one of %v", Periods))
	}
	return t, p, nil
}
