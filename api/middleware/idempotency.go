package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/sweetdelights-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// Bounds how long a crashed request can hold its key.
	inFlightIdempotencyTTL = 2 * time.Minute
)

type idempotencyPolicy struct {
	ttl      time.Duration
	required bool
}

// Keyed by "METHOD pattern". Payment is the only write where a missing key is
// rejected; a double charge is the failure mode that matters.
var idempotencyPolicies = map[string]idempotencyPolicy{
	http.MethodPost + " /api/v1/checkout/payment":  {ttl: criticalIdempotencyTTL, required: true},
	http.MethodPost + " /api/v1/auth/register":     {ttl: defaultIdempotencyTTL},
	http.MethodPost + " /api/v1/contact":           {ttl: defaultIdempotencyTTL},
	http.MethodPost + " /api/v1/account/addresses": {ttl: defaultIdempotencyTTL},
}

func policyFor(method, pattern string) (idempotencyPolicy, bool) {
	policy, ok := idempotencyPolicies[method+" "+pattern]
	return policy, ok
}

// storedReply is what a replay writes back. Body is base64 through encoding/json.
// A zero Status marks a key reserved by a request that has not finished.
type storedReply struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency replays the first non-5xx reply recorded for a session, route
// and Idempotency-Key triple, and rejects a reused key with a different body.
// The key is reserved before the handler runs, so a duplicate arriving while
// the first request is still in flight gets a conflict instead of a second run.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pattern := routePattern(r)
			policy, guarded := policyFor(r.Method, pattern)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				if policy.required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintBody(body)
			storeKey := store.IdempotencyKey(strings.Join([]string{SessionIDFromContext(r.Context()), r.Method, pattern}, "|"), key)

			prior, err := lookupReply(r, store, storeKey)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if prior == nil {
				prior, err = reserveKey(r, store, storeKey, fingerprint)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
			if prior != nil {
				switch {
				case prior.Fingerprint != fingerprint:
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case prior.pending():
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
				default:
					if logg != nil {
						logg.Info(logg.WithField(r.Context(), "idempotency_key", key), "idempotency.replayed")
					}
					prior.writeTo(w)
				}
				return
			}

			// The handler may outlive the client; the record must still settle.
			persistCtx := context.WithoutCancel(r.Context())
			settled := false
			defer func() {
				if !settled {
					_ = store.Del(persistCtx, storeKey)
				}
			}()

			capture := &replyRecorder{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(capture, r)

			status := capture.status
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}
			reply := storedReply{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			}
			if err := rememberReply(persistCtx, store, storeKey, reply, policy.ttl); err != nil {
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "idempotency_key", key), "idempotency.persist_failed", err)
				}
				return
			}
			settled = true
		})
	}
}

// reserveKey claims storeKey with a pending record. When another request won
// the claim, its record is returned instead.
func reserveKey(r *http.Request, store pkgredis.IdempotencyStore, storeKey, fingerprint string) (*storedReply, error) {
	payload, err := json.Marshal(storedReply{Fingerprint: fingerprint})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency reservation")
	}
	ok, err := store.SetNX(r.Context(), storeKey, string(payload), inFlightIdempotencyTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	if ok {
		return nil, nil
	}
	winner, err := lookupReply(r, store, storeKey)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		// Released between the claim and the read; treat as still busy.
		return &storedReply{Fingerprint: fingerprint}, nil
	}
	return winner, nil
}

func lookupReply(r *http.Request, store pkgredis.IdempotencyStore, key string) (*storedReply, error) {
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var reply storedReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &reply, nil
}

// rememberReply replaces the pending reservation with the final reply.
func rememberReply(ctx context.Context, store pkgredis.IdempotencyStore, key string, reply storedReply, ttl time.Duration) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(payload), ttl)
}

func (s *storedReply) pending() bool {
	return s.Status == 0
}

func (s *storedReply) writeTo(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// routePattern prefers the matched chi pattern. Group mounts only expose a
// trailing wildcard until the leaf matches, so those fall back to the path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

type replyRecorder struct {
	statusRecorder
	body bytes.Buffer
}

func (c *replyRecorder) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.statusRecorder.Write(b)
}
