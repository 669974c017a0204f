// internal/membership/domain.go
package membership

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the membership tier.
type Type string

const (
	TypeGold     Type = "gold"
	TypePlatinum Type = "platinum"
	TypeDiamond  Type = "diamond"
)

// Period is the billing and validity interval.
type Period string

const (
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodAnnually Period = "annually"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var (
	Types   = []Type{TypeGold, TypePlatinum, TypeDiamond}
	Periods = []Period{PeriodWeekly, PeriodMonthly, PeriodAnnually}
)

func (t Type) Valid() bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

func (p Period) Valid() bool {
	for _, v := range Periods {
		if p == v {
			return true
		}
	}
	return false
}

var (
	ErrInvalidEnum                = errors.New("invalid enum value")
	ErrInvalidMembershipParameter = errors.New("invalid membership parameter")
	ErrNotFound                   = errors.New("membership not found")
)

// StoreError reports a failed durable store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("membership store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Amount is a currency-agnostic price held in hundredths.
type Amount int64

// Units builds an Amount from whole currency units.
func Units(n int64) Amount {
	return Amount(n * 100)
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseAmount reads a decimal string with at most two fractional digits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, dot := strings.Cut(s, ".")
	if !allDigits(whole) || (dot && !allDigits(frac)) {
		return 0, fmt.Errorf("amount %q is not a decimal number", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimals", s)
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	v := w*100 + f
	if neg {
		v = -v
	}
	return Amount(v), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := ParseAmount(n.String())
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value stores the amount in a NUMERIC(10,2) column.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		*a = Units(v)
		return nil
	case float64:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Quote is the derived part of a membership: when it ends and what it costs.
type Quote struct {
	Type        Type      `json:"membershipType"`
	Period      Period    `json:"membershipPeriod"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	TotalAmount Amount    `json:"totalAmount"`
}

// Record is a purchased membership. Durable and in-memory records share this
// shape.
type Record struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId,omitempty"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Type          Type          `json:"membershipType"`
	Period        Period        `json:"membershipPeriod"`
	Status        Status        `json:"status"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       time.Time     `json:"endDate"`
	TotalAmount   Amount        `json:"totalAmount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Request carries the caller supplied fields of a membership purchase.
type Request struct {
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required"`
	Phone     string    `json:"phone" validate:"required"`
	Type      string    `json:"membershipType" validate:"required"`
	Period    string    `json:"membershipPeriod" validate:"required"`
	StartDate time.Time `json:"startDate,omitempty"`
}

// HistoryEntry is one event recorded against a durable membership.
type HistoryEntry struct {
	Type      string          `json:"type"`
	Version   int             `json:"version"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MembershipPurchasedEvent is appended when a membership is stored durably.
type MembershipPurchasedEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Email       string    `json:"email"`
	Type        Type      `json:"membership_type"`
	Period      Period    `json:"membership_period"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalAmount Amount    `json:"total_amount"`
}
