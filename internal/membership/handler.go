// internal/membership/handler.go
package membership

import (
	"context"
	"net/http"
	"time"

	"clubverse/internal/httpx"
	"clubverse/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errorMappings = []httpx.Mapping{
	{Err: ErrInvalidEnum, Status: http.StatusBadRequest, Code: "invalid_enum"},
	{Err: ErrInvalidMembershipParameter, Status: http.StatusBadRequest, Code: "invalid_membership_parameter"},
	{Err: ErrNotFound, Status: http.StatusNotFound, Code: "not_found"},
}

type Handler struct {
	service Service
	logger  *zap.Logger
	userID  func(context.Context) string
}

// NewHandler builds the HTTP handler. userID, when set, links purchases to
// the logged-in user.
func NewHandler(service Service, logger *zap.Logger, userID func(context.Context) string) *Handler {
	if userID == nil {
		userID = func(context.Context) string { return "" }
	}
	return &Handler{service: service, logger: logger, userID: userID}
}

// Routes mounts the membership endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/memberships/quote", h.handleQuote)
	r.Post("/memberships", h.handleCreate)
	r.Get("/memberships/{id}", h.handleGet)
	r.Get("/memberships/{id}/history", h.handleHistory)
}

type createRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"membershipType"`
	Period    string `json:"membershipPeriod"`
	StartDate string `json:"startDate"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := httpx.Decode(w, r, &body); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	start, err := parseStart(body.StartDate)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	rec, err := h.service.CreateMembership(r.Context(), Request{
		UserID:    h.userID(r.Context()),
		Name:      body.Name,
		Email:     body.Email,
		Phone:     body.Phone,
		Type:      body.Type,
		Period:    body.Period,
		StartDate: start,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err, errorMappings...)
		return
	}

	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseStart(q.Get("start"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), q.Get("type"), q.Get("period"), start)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err, errorMappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetMembership(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err, errorMappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err, errorMappings...)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

// parseStart accepts RFC 3339 timestamps or plain dates (midnight UTC).
func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, validation.NewFieldError("startDate", validation.ErrInvalidFormat,
		"startDate must be an RFC 3339 timestamp or YYYY-MM-DD date")
}
