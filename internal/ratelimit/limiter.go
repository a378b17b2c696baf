package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"reviso/internal/common"
	"reviso/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultWindow   = 60 * time.Second
	DefaultLoginMax = 5
	SignupMax       = 3
)

type Config struct {
	Scope   string
	Max     int
	Window  time.Duration
	Message string
}

// Limiter applies a fixed-window quota to keys within one scope.
type Limiter struct {
	store   Store
	scope   string
	max     int
	window  time.Duration
	message string
}

func New(store Store, cfg Config) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = DefaultLoginMax
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests. Try again later."
	}
	return &Limiter{
		store:   store,
		scope:   cfg.Scope,
		max:     cfg.Max,
		window:  cfg.Window,
		message: cfg.Message,
	}
}

// NewLoginLimiter allows five attempts per minute per key.
func NewLoginLimiter(store Store) *Limiter {
	return New(store, Config{
		Scope:   "login",
		Max:     DefaultLoginMax,
		Message: "Too many login attempts. Try again later.",
	})
}

// NewSignupLimiter allows three attempts per minute per key.
func NewSignupLimiter(store Store) *Limiter {
	return New(store, Config{
		Scope:   "signup",
		Max:     SignupMax,
		Message: "Too many signup attempts. Try again later.",
	})
}

func (l *Limiter) scoped(key string) string {
	if l.scope == "" {
		return key
	}
	return l.scope + ":" + key
}

// Allow records a request for key. Store failures fail open.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	allowed, err := l.store.Hit(ctx, l.scoped(key), l.max, l.window)
	if err != nil {
		log.Warn().Err(err).Str("scope", l.scope).Msg("rate limit store unavailable, allowing request")
		return true
	}
	if !allowed {
		metrics.RateLimitRejectionsTotal.WithLabelValues(l.scope).Inc()
	}
	return allowed
}

func (l *Limiter) Reset(ctx context.Context, key string) {
	if err := l.store.Reset(ctx, l.scoped(key)); err != nil {
		log.Warn().Err(err).Str("scope", l.scope).Msg("rate limit reset failed")
	}
}

// Err is the throttling error returned to callers.
func (l *Limiter) Err() *common.Error {
	return common.NewError(common.KindThrottled, "RATE_LIMITED", l.message)
}

// Middleware rejects requests from a client IP that exceeded the quota.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.Request().Context(), ClientIP(c.Request())) {
				return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", l.message, nil))
			}
			return next(c)
		}
	}
}

// ClientIP prefers the first X-Forwarded-For hop over the socket address.
func ClientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
