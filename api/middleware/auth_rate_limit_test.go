package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
)

// windowCounter counts hits per scope and never expires them.
type windowCounter struct {
	mu   sync.Mutex
	hits map[string]int64
}

func (c *windowCounter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hits == nil {
		c.hits = map[string]int64{}
	}
	c.hits[scope]++
	return c.hits[scope] <= limit, c.hits[scope], nil
}

func attempt(h http.Handler, remote, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitKeepsBodyForHandler(t *testing.T) {
	const body = `{"email":"tester@example.com","password":"secret"}`
	var seen string
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 2, 2), &windowCounter{}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			seen = string(raw)
			w.WriteHeader(http.StatusOK)
		}))

	if rec := attempt(h, "1.2.3.4:5678", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != body {
		t.Fatalf("handler saw %q", seen)
	}
}

func TestAuthRateLimitCounters(t *testing.T) {
	cases := map[string]struct {
		ipLimit, emailLimit int
		remotes             []string
		emails              []string
		want                []int
	}{
		"email limit across addresses": {
			emailLimit: 2,
			remotes:    []string{"1.1.1.1:1", "2.2.2.2:1", "3.3.3.3:1"},
			emails:     []string{"blocked@example.com", "blocked@example.com", "blocked@example.com"},
			want:       []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
		},
		"ip limit across mailboxes": {
			ipLimit: 1,
			remotes: []string{"5.6.7.8:1234", "5.6.7.8:1235"},
			emails:  []string{"a@example.com", "b@example.com"},
			want:    []int{http.StatusOK, http.StatusTooManyRequests},
		},
		"mailbox match ignores case and spaces": {
			emailLimit: 1,
			remotes:    []string{"", ""},
			emails:     []string{"Baker@Example.com", " baker@example.com "},
			want:       []int{http.StatusOK, http.StatusTooManyRequests},
		},
	}
	for name, tc := range cases {
		h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, tc.ipLimit, tc.emailLimit), &windowCounter{}, nil)(okHandler())
		for i, want := range tc.want {
			rec := attempt(h, tc.remotes[i], `{"email":"`+tc.emails[i]+`","password":"secret"}`)
			if rec.Code != want {
				t.Fatalf("%s: attempt %d got %d, want %d", name, i+1, rec.Code, want)
			}
		}
	}
}

func TestAuthRateLimitRejectionEnvelope(t *testing.T) {
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 0), &windowCounter{}, nil)(okHandler())
	attempt(h, "9.9.9.9:1", `{}`)
	rec := attempt(h, "9.9.9.9:1", `{}`)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests || payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected rejection %d %s", rec.Code, payload.Error.Code)
	}
}

func TestAuthRateLimitHashesEmailScope(t *testing.T) {
	counter := &windowCounter{}
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 0, 5), counter, nil)(okHandler())
	attempt(h, "", `{"email":"Baker@Example.com"}`)

	if _, ok := counter.hits["login:email:"+hashValue("baker@example.com")]; !ok {
		t.Fatalf("expected hashed email scope, got %v", counter.hits)
	}
	for scope := range counter.hits {
		if strings.Contains(scope, "baker@") {
			t.Fatalf("raw email leaked into scope %q", scope)
		}
	}
}

func TestAuthRateLimitZeroWindowDisables(t *testing.T) {
	counter := &windowCounter{}
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), counter, nil)(okHandler())
	for i := 0; i < 3; i++ {
		if rec := attempt(h, "", `{"email":"a@b.co"}`); rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	}
	if len(counter.hits) != 0 {
		t.Fatalf("expected no counters, got %v", counter.hits)
	}
}

func TestClientIPPrefersFirstForwardedHop(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded client, got %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req); got != "10.0.0.9" {
		t.Fatalf("expected socket peer, got %q", got)
	}
}
