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
	"strings"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one auth surface (login, register) per client
// IP and per mailbox within a fixed window. A zero limit disables that counter.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateCheck is one counter consulted for a request.
type rateCheck struct {
	kind    string
	subject string
	limit   int
}

func (p AuthRateLimitPolicy) scope(c rateCheck) string {
	return p.name + ":" + c.kind + ":" + c.subject
}

// AuthRateLimit rejects a request with 429 once any of its counters is over
// the limit. Emails are hashed before they reach redis or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter rateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checks, err := policy.checksFor(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for _, check := range checks {
				allowed, attempts, err := limiter.FixedWindowAllow(r.Context(), policy.scope(check), int64(check.limit), policy.window)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(r.Context(), map[string]any{
							"policy":         policy.name,
							"scope":          check.kind,
							"subject":        check.subject,
							"attempts":       attempts,
							"limit":          check.limit,
							"window_seconds": int(policy.window.Seconds()),
						}), "auth.rate_limit.blocked")
					}
					responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checksFor lists the counters r is charged against. The body is restored for
// the next handler when the email has to be read from it.
func (p AuthRateLimitPolicy) checksFor(r *http.Request) ([]rateCheck, error) {
	checks := make([]rateCheck, 0, 2)
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			checks = append(checks, rateCheck{kind: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.emailLimit > 0 {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var credentials struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &credentials) == nil {
			if email := strings.ToLower(strings.TrimSpace(credentials.Email)); email != "" {
				checks = append(checks, rateCheck{kind: "email", subject: hashValue(email), limit: p.emailLimit})
			}
		}
	}
	return checks, nil
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
