// internal/account/middleware.go
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"clubverse/internal/httpx"

	"go.uber.org/zap"
)

// CookieName is the session cookie holding the JWT.
const CookieName = "token"

type ctxKey struct{}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// UserIDFromContext returns the authenticated user's ID or "".
func UserIDFromContext(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID.String()
	}
	return ""
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate attaches the user behind a bearer token or session cookie.
// Requests without a valid token pass through anonymously.
func Authenticate(svc Service, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := svc.UserFromToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					logger.Error("failed to resolve session", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.JSON(w, http.StatusUnauthorized, httpx.ErrorBody{
				Error: ErrUnauthenticated.Error(),
				Code:  "unauthenticated",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
