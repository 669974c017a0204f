// internal/reservation/domain.go
package reservation

import (
	"errors"
	"time"
)

// Reservation is a table booking at one of the clubs.
type Reservation struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId,omitempty"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Guests          int       `json:"guests"`
	SpecialRequests string    `json:"specialRequests,omitempty"`
	Club            string    `json:"club"`
	ClubLocation    string    `json:"clubLocation,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Request is a reservation form submission.
type Request struct {
	UserID          string `json:"-"`
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Time            string `json:"time" validate:"required"`
	Guests          int    `json:"guests" validate:"required,min=1,max=50"`
	SpecialRequests string `json:"specialRequests"`
	Club            string `json:"club" validate:"required"`
	ClubLocation    string `json:"clubLocation"`
}

var ErrNotFound = errors.New("reservation not found")

// ReservationSubmittedEvent is appended for every accepted booking.
type ReservationSubmittedEvent struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Club   string `json:"club"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Guests int    `json:"guests"`
}
