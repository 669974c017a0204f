// internal/reservation/handler.go
package reservation

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"clubverse/internal/httpx"
	"clubverse/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errorMappings = []httpx.Mapping{
	{Err: ErrNotFound, Status: http.StatusNotFound, Code: "not_found"},
}

type Handler struct {
	service Service
	logger  *zap.Logger
	userID  func(context.Context) string
}

func NewHandler(service Service, logger *zap.Logger, userID func(context.Context) string) *Handler {
	if userID == nil {
		userID = func(context.Context) string { return "" }
	}
	return &Handler{service: service, logger: logger, userID: userID}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/reservations", h.handleSubmit)
	r.Get("/reservations/{id}", h.handleGet)
}

// submitRequest accepts guests as a number or a numeric string, as sent by
// plain HTML forms.
type submitRequest struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Date            string      `json:"date"`
	Time            string      `json:"time"`
	Guests          json.Number `json:"guests"`
	SpecialRequests string      `json:"specialRequests"`
	Club            string      `json:"club"`
	ClubLocation    string      `json:"clubLocation"`
}

type submitResponse struct {
	Message     string       `json:"message"`
	Reservation *Reservation `json:"reservation"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := httpx.Decode(w, r, &body); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var guests int
	if body.Guests != "" {
		n, err := strconv.Atoi(body.Guests.String())
		if err != nil {
			httpx.WriteError(w, r, h.logger,
				validation.NewFieldError("guests", validation.ErrInvalidFormat, "guests must be a whole number"))
			return
		}
		guests = n
	}

	res, err := h.service.Submit(r.Context(), Request{
		UserID:          h.userID(r.Context()),
		Name:            body.Name,
		Email:           body.Email,
		Phone:           body.Phone,
		Date:            body.Date,
		Time:            body.Time,
		Guests:          guests,
		SpecialRequests: body.SpecialRequests,
		Club:            body.Club,
		ClubLocation:    body.ClubLocation,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err, errorMappings...)
		return
	}

	httpx.JSON(w, http.StatusCreated, submitResponse{
		Message:     "Reservation successful! Confirmation email sent.",
		Reservation: res,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err, errorMappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
