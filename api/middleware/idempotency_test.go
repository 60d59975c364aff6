package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
)

const (
	paymentRoute  = "/api/v1/checkout/payment"
	registerRoute = "/api/v1/auth/register"
	contactRoute  = "/api/v1/contact"
)

// replayStore keeps idempotency records in a map.
type replayStore map[string]string

func (s replayStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s replayStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s[key] = value.(string)
	return nil
}

func (s replayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, taken := s[key]; taken {
		return false, nil
	}
	s[key] = value.(string)
	return true, nil
}

func (s replayStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (s replayStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s, key)
	}
	return nil
}

// countingHandler answers with status and counts how often it ran.
type countingHandler struct {
	status int
	calls  int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

type replayCall struct {
	route, key, session, body string
}

func (c replayCall) serve(h http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, c.route, strings.NewReader(c.body))
	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{c.route}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if c.session != "" {
		ctx = WithSessionID(ctx, c.session)
	}
	req = req.WithContext(ctx)
	if c.key != "" {
		req.Header.Set(idempotencyHeader, c.key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPolicyFor(t *testing.T) {
	cases := map[string]struct {
		method, pattern string
		ttl             time.Duration
		required, ok    bool
	}{
		"payment":   {http.MethodPost, paymentRoute, criticalIdempotencyTTL, true, true},
		"register":  {http.MethodPost, registerRoute, defaultIdempotencyTTL, false, true},
		"contact":   {http.MethodPost, contactRoute, defaultIdempotencyTTL, false, true},
		"addresses": {http.MethodPost, "/api/v1/account/addresses", defaultIdempotencyTTL, false, true},
		"shipping":  {http.MethodPut, "/api/v1/checkout/shipping", 0, false, false},
		"login":     {http.MethodPost, "/api/v1/auth/login", 0, false, false},
	}
	for name, tc := range cases {
		policy, ok := policyFor(tc.method, tc.pattern)
		if ok != tc.ok {
			t.Fatalf("%s: guarded=%v, want %v", name, ok, tc.ok)
		}
		if ok && (policy.ttl != tc.ttl || policy.required != tc.required) {
			t.Fatalf("%s: unexpected policy %+v", name, policy)
		}
	}
}

func TestPaymentWithoutKeyIsRejected(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	rec := replayCall{route: paymentRoute, body: `{"cvv":"123"}`}.serve(Idempotency(replayStore{}, nil)(next))

	if rec.Code != http.StatusBadRequest || next.calls != 0 {
		t.Fatalf("expected 400 without running the handler, got %d after %d calls", rec.Code, next.calls)
	}
}

func TestSameKeyAndBodyReplaysFirstReply(t *testing.T) {
	next := &countingHandler{status: http.StatusAccepted}
	h := Idempotency(replayStore{}, nil)(next)
	call := replayCall{route: registerRoute, key: "abc", body: `{"email":"ann@example.com"}`}

	first := call.serve(h)
	replay := call.serve(h)

	if first.Code != http.StatusAccepted || replay.Code != http.StatusAccepted {
		t.Fatalf("expected 202 twice, got %d then %d", first.Code, replay.Code)
	}
	if replay.Header().Get("Content-Type") != "application/json" || replay.Body.String() != `{"ok":true}` {
		t.Fatalf("replay lost the stored reply: %q %q", replay.Header().Get("Content-Type"), replay.Body.String())
	}
	if next.calls != 1 {
		t.Fatalf("handler ran %d times", next.calls)
	}
}

func TestReusedKeyWithNewBodyConflicts(t *testing.T) {
	h := Idempotency(replayStore{}, nil)(&countingHandler{status: http.StatusOK})
	replayCall{route: registerRoute, key: "xyz", body: `{"email":"a@example.com"}`}.serve(h)
	rec := replayCall{route: registerRoute, key: "xyz", body: `{"email":"b@example.com"}`}.serve(h)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusConflict || payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected 409 %s, got %d %s", pkgerrors.CodeIdempotency, rec.Code, payload.Error.Code)
	}
}

func TestKeylessOptionalRouteRunsEveryTime(t *testing.T) {
	store := replayStore{}
	next := &countingHandler{status: http.StatusCreated}
	h := Idempotency(store, nil)(next)

	call := replayCall{route: contactRoute, body: `{"name":"Ann"}`}
	call.serve(h)
	call.serve(h)

	if next.calls != 2 || len(store) != 0 {
		t.Fatalf("expected two runs and nothing stored, got %d runs and %d records", next.calls, len(store))
	}
}

func TestKeysAreScopedPerSession(t *testing.T) {
	next := &countingHandler{status: http.StatusOK}
	h := Idempotency(replayStore{}, nil)(next)

	replayCall{route: paymentRoute, key: "same-key", session: "session-a", body: `{}`}.serve(h)
	replayCall{route: paymentRoute, key: "same-key", session: "session-b", body: `{}`}.serve(h)

	if next.calls != 2 {
		t.Fatalf("sessions shared a key: %d calls", next.calls)
	}
}

func TestServerErrorsStayRetryable(t *testing.T) {
	store := replayStore{}
	h := Idempotency(store, nil)(&countingHandler{status: http.StatusServiceUnavailable})
	replayCall{route: paymentRoute, key: "retry-me", body: `{}`}.serve(h)

	if len(store) != 0 {
		t.Fatalf("5xx reply was recorded")
	}
}

func TestDuplicateWhileInFlightConflicts(t *testing.T) {
	store := replayStore{}
	call := replayCall{route: paymentRoute, key: "pay-1", session: "s", body: `{"cvv":"123"}`}

	var h http.Handler
	var duplicate *httptest.ResponseRecorder
	runs := 0
	h = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		runs++
		if runs == 1 {
			duplicate = call.serve(h)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := call.serve(h)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if duplicate == nil || duplicate.Code != http.StatusConflict {
		t.Fatalf("expected in-flight duplicate to get 409, got %+v", duplicate)
	}
	if runs != 1 {
		t.Fatalf("handler ran %d times", runs)
	}

	if replay := call.serve(h); replay.Code != http.StatusCreated || runs != 1 {
		t.Fatalf("expected stored 201 replay, got %d after %d runs", replay.Code, runs)
	}
}

func TestPanickingHandlerReleasesKey(t *testing.T) {
	store := replayStore{}
	h := Idempotency(store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	func() {
		defer func() { _ = recover() }()
		replayCall{route: contactRoute, key: "c-1", body: `{}`}.serve(h)
	}()

	if len(store) != 0 {
		t.Fatalf("reservation outlived the failed request: %v", store)
	}
}

func TestRoutePatternFallsBackOnWildcard(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, paymentRoute, nil)
	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{"/api/v1/checkout/*"}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	if got := routePattern(req); got != paymentRoute {
		t.Fatalf("expected raw path, got %s", got)
	}
}
