// internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"clubverse/internal/httpx"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config allows Requests per Window for each client IP. Message is returned
// to clients that exceed it.
type Config struct {
	Name     string
	Requests int
	Window   time.Duration
	Message  string
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP. Buckets idle for longer than
// a window are swept on the next request.
type Limiter struct {
	cfg    Config
	limit  rate.Limit
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
}

func New(cfg Config, logger *zap.Logger) *Limiter {
	if cfg.Message == "" {
		cfg.Message = "Too many requests from this IP, please try again later."
	}
	limit := rate.Inf
	if cfg.Requests > 0 && cfg.Window > 0 {
		limit = rate.Every(cfg.Window / time.Duration(cfg.Requests))
	}
	return &Limiter{
		cfg:       cfg,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
		entries:   make(map[string]*entry),
		lastSweep: time.Now(),
	}
}

// Allow takes a token for key. When none is left it reports how long until
// the next one.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.Window {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > l.cfg.Window {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.cfg.Requests)}
		l.entries[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len is the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l == nil || l.cfg.Requests <= 0 || l.cfg.Window <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, retry := l.Allow(ip)
		if !ok {
			l.logger.Warn("rate limit exceeded",
				zap.String("limiter", l.cfg.Name),
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retry)))
			httpx.JSON(w, http.StatusTooManyRequests, httpx.ErrorBody{Error: l.cfg.Message, Code: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys on RemoteAddr. Proxy headers are honoured only upstream,
// by a middleware that checks the proxy is trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
