package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/nearbuy-backend/api/responses"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy defines the throttling parameters for mutating calls.
type RateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	customerLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, customerLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:          strings.ToLower(strings.TrimSpace(name)),
		window:        window,
		ipLimit:       ipLimit,
		customerLimit: customerLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.customerLimit > 0)
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "writes"
	}
	return p.name
}

func (p RateLimitPolicy) scope(kind, value string) string {
	if value == "" {
		return ""
	}
	return p.normalizedName() + ":" + kind + ":" + value
}

// RateLimit counts mutating requests per client IP and per authenticated
// customer in fixed windows. Reads pass straight through.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			checks := []struct {
				kind  string
				value string
				limit int
			}{
				{"ip", clientIP(r), policy.ipLimit},
				{"customer", CustomerIDFromContext(ctx), policy.customerLimit},
			}
			for _, check := range checks {
				if check.limit <= 0 {
					continue
				}
				scope := policy.scope(check.kind, check.value)
				if scope == "" {
					continue
				}
				allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(check.limit), policy.window)
				if err != nil {
					// fail open
					if logg != nil {
						logg.Warn(logg.WithField(ctx, "scope", check.kind), "rate_limit.unavailable")
					}
					continue
				}
				if !allowed {
					respondRateLimited(ctx, logg, w, policy, check.kind, count, check.limit)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, scope string, count int64, limit int) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
