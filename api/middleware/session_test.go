package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSessionMintsIDWhenAbsent(t *testing.T) {
	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected generated uuid, got %q", seen)
	}
	if resp.Header().Get(SessionHeader) != seen {
		t.Fatalf("expected session echoed, got %q", resp.Header().Get(SessionHeader))
	}
}

func TestSessionKeepsClientID(t *testing.T) {
	id := uuid.NewString()
	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, id)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen != id || resp.Header().Get(SessionHeader) != id {
		t.Fatalf("expected %s preserved, got ctx=%s header=%s", id, seen, resp.Header().Get(SessionHeader))
	}
}

func TestSessionReplacesMalformedID(t *testing.T) {
	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "../../etc/passwd")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "../../etc/passwd" {
		t.Fatal("expected malformed session id to be replaced")
	}
}
