// internal/reservation/implementation.go
package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clubverse/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	dateLayout = time.DateOnly
	timeLayout = "15:04"
)

type service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	tracer   trace.Tracer
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *service) { s.newID = newID }
}

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

// NewService creates a new reservation service instance.
func NewService(store Store, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		tracer: otel.Tracer("clubverse/reservation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores a booking, then emails the guest. A failed
// email is logged and does not fail the booking.
func (s *service) Submit(ctx context.Context, req Request) (*Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.submit")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("reservation.club", req.Club), attribute.Int("reservation.guests", req.Guests))

	r := Reservation{
		ID:              s.newID(),
		UserID:          req.UserID,
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Date:            req.Date,
		Time:            req.Time,
		Guests:          req.Guests,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		Club:            req.Club,
		ClubLocation:    req.ClubLocation,
		CreatedAt:       s.now(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to store reservation: %w", err)
	}
	s.logger.Info("reservation submitted",
		zap.String("reservation_id", r.ID),
		zap.String("club", r.Club),
		zap.Int("guests", r.Guests),
	)

	if s.notifier != nil {
		if err := s.notifier.ReservationConfirmed(ctx, r); err != nil {
			s.logger.Error("reservation confirmation email failed",
				zap.String("reservation_id", r.ID),
				zap.String("email", r.Email),
				zap.Error(err),
			)
		}
	}
	return &r, nil
}

func (s *service) Get(ctx context.Context, id string) (*Reservation, error) {
	return s.store.Get(ctx, id)
}

func validateRequest(req Request) error {
	if err := validation.Required(req); err != nil {
		return err
	}
	if err := validation.Email(strings.TrimSpace(req.Email)); err != nil {
		return err
	}
	if err := validation.Phone(strings.TrimSpace(req.Phone)); err != nil {
		return err
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return validation.NewFieldError("date", validation.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(timeLayout, req.Time); err != nil {
		return validation.NewFieldError("time", validation.ErrInvalidFormat, "time must be HH:MM")
	}
	return nil
}
