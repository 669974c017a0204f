// internal/account/handler.go
package account

import (
	"errors"
	"net/http"
	"time"

	"clubverse/internal/httpx"

	"go.uber.org/zap"
)

var errorMappings = []httpx.Mapping{
	{Err: ErrEmailTaken, Status: http.StatusConflict, Code: "email_taken"},
	{Err: ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: "invalid_credentials"},
	{Err: ErrAccountLocked, Status: http.StatusLocked, Code: "account_locked"},
	{Err: ErrInvalidResetToken, Status: http.StatusBadRequest, Code: "invalid_reset_token"},
	{Err: ErrUserNotFound, Status: http.StatusNotFound, Code: "not_found"},
}

type Handler struct {
	service      Service
	logger       *zap.Logger
	secureCookie bool
}

// NewHandler builds the account endpoints. secureCookie marks the session
// cookie Secure, for deployments behind TLS.
func NewHandler(service Service, logger *zap.Logger, secureCookie bool) *Handler {
	return &Handler{service: service, logger: logger, secureCookie: secureCookie}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var weak *WeakPasswordError
	if errors.As(err, &weak) {
		httpx.JSON(w, http.StatusBadRequest, struct {
			httpx.ErrorBody
			Problems []string `json:"problems"`
		}{
			ErrorBody: httpx.ErrorBody{Error: "password too weak", Code: "weak_password", Field: "password"},
			Problems:  weak.Problems,
		})
		return
	}
	httpx.WriteError(w, r, h.logger, err, errorMappings...)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

type loginResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, expires, err := h.service.IssueToken(*user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.JSON(w, http.StatusOK, loginResponse{User: user, Token: token, ExpiresAt: expires})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"message": "If that email is registered, a reset link is on its way.",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Password updated. Please login."})
}

// Me returns the logged-in user. Mount behind RequireUser.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, user)
}
