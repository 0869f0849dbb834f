package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matespatagonico/storefront/api/responses"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy throttles credential endpoints per client IP and per
// submitted email within a fixed window.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

func (p AuthRateLimitPolicy) scope(kind, value string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "auth"
	}
	return name + ":" + kind + ":" + value
}

// AuthRateLimit enforces the policy with Redis counters. Requests over the
// limit get RATE_LIMITED before the backend is contacted.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.IPLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !checkLimit(ctx, w, store, logg, policy, "ip", ip, policy.IPLimit) {
						return
					}
				}
			}

			if policy.EmailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := normalizeEmail(extractEmail(body)); email != "" {
					if !checkLimit(ctx, w, store, logg, policy, "email", hashValue(email), policy.EmailLimit) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkLimit(ctx context.Context, w http.ResponseWriter, store rateLimiterStore, logg *logger.Logger, policy AuthRateLimitPolicy, kind, value string, limit int) bool {
	key := store.RateLimitKey(policy.scope(kind, value))
	count, err := store.IncrWithTTL(ctx, key, policy.Window)
	if err != nil {
		// Redis trouble must not lock shoppers out of login.
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.rate_limit.unavailable")
		}
		return true
	}
	if count <= int64(limit) {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          kind,
			"policy":         policy.Name,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.Window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", retryAfterSeconds(policy.Window))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return false
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
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

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
