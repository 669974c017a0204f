// internal/server/server.go
package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"clubverse/internal/account"
	"clubverse/internal/config"
	"clubverse/internal/httpx"
	"clubverse/internal/membership"
	"clubverse/internal/ratelimit"
	"clubverse/internal/reservation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	Config       *config.Config
	Logger       *zap.Logger
	DB           Pinger
	Accounts     account.Service
	Memberships  membership.Service
	Reservations reservation.Service
	Metrics      http.Handler
}

// NewRouter builds the full HTTP surface.
func NewRouter(d Deps) (http.Handler, error) {
	cfg := d.Config
	logger := d.Logger

	csrfKey := []byte(cfg.CSRF.Key)
	if len(csrfKey) == 0 {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		logger.Warn("csrf.key not set, using a random key; CSRF tokens will not survive restarts")
	}

	limiter := func(name string, l config.Limit, msg string) *ratelimit.Limiter {
		return ratelimit.New(ratelimit.Config{Name: name, Requests: l.Requests, Window: l.Window, Message: msg}, logger)
	}
	apiLimit := limiter("api", cfg.RateLimit.API, "Too many requests from this IP, please try again later.")
	loginLimit := limiter("login", cfg.RateLimit.Login, "Too many login attempts, please try again later.")
	registerLimit := limiter("register", cfg.RateLimit.Register, "Too many registration attempts, please try again later.")
	passwordLimit := limiter("password", cfg.RateLimit.Login, "Too many password reset attempts, please try again later.")

	realIP, err := trustedRealIP(cfg.HTTP.TrustedProxies)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(realIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", healthz(d.DB))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	accounts := account.NewHandler(d.Accounts, logger, cfg.Auth.SecureCookie)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimit.Middleware)
		r.Use(csrfProtect(csrfKey, cfg.Auth.SecureCookie, cfg.CSRF.TrustedOrigins))
		r.Use(account.Authenticate(d.Accounts, logger))

		r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, map[string]string{"csrfToken": csrf.Token(r)})
		})

		r.With(registerLimit.Middleware).Post("/register", accounts.Register)
		r.With(loginLimit.Middleware).Post("/login", accounts.Login)
		r.Post("/logout", accounts.Logout)
		r.With(passwordLimit.Middleware).Post("/password/forgot", accounts.ForgotPassword)
		r.With(passwordLimit.Middleware).Post("/password/reset", accounts.ResetPassword)
		r.With(account.RequireUser).Get("/me", accounts.Me)

		reservation.NewHandler(d.Reservations, logger, account.UserIDFromContext).Routes(r)
		membership.NewHandler(d.Memberships, logger, account.UserIDFromContext).Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.ErrorBody{Error: "not found", Code: "not_found"})
	})
	return r, nil
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "ok"}
		if db == nil {
			status["database"] = "disabled"
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				// memberships still work from memory
				status["status"] = "degraded"
				status["database"] = err.Error()
			}
		}
		httpx.JSON(w, http.StatusOK, status)
	}
}

// New wraps the router in an http.Server with the configured timeouts.
func New(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
