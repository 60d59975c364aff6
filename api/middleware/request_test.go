package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	handler := RequestID(logger.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "edge-7f3a.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "edge-7f3a.1" {
		t.Fatalf("expected caller id to be kept, got %q", got)
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	handler := RequestID(logger.Nop())(okHandler())

	for _, raw := range []string{"", "has space", strings.Repeat("a", maxRequestIDBytes+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, raw)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if _, err := uuid.Parse(rec.Header().Get(requestIDHeader)); err != nil {
			t.Fatalf("expected generated id for %q, got %q", raw, rec.Header().Get(requestIDHeader))
		}
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("oven on fire")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "oven on fire") {
		t.Fatalf("panic value leaked to client: %s", rec.Body.String())
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
