package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/sweetdelights-backend/internal/account"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
)

func newAccountFixture(t *testing.T, signedIn bool) account.Service {
	t.Helper()
	st, _ := newCartFixture(t)
	if signedIn {
		if _, err := st.SignIn(context.Background(), testSession, store.User{ID: "u-1", Email: "jo@example.com", Name: "jo"}, false); err != nil {
			t.Fatalf("sign in: %v", err)
		}
	}
	svc, err := account.NewService(st, loadCatalog(t))
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	return svc
}

func TestAccountOverviewRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	AccountOverview(newAccountFixture(t, false), nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/account", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAccountOverviewAndAddAddress(t *testing.T) {
	svc := newAccountFixture(t, true)

	resp := httptest.NewRecorder()
	AccountOverview(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/account", nil))
	var overview account.Overview
	decodeData(t, resp, &overview)
	if overview.User.Email != "jo@example.com" || len(overview.Orders) != 2 {
		t.Fatalf("unexpected overview %+v", overview)
	}

	body := `{"street":"12 Frosting Ln","city":"Austin","state":"TX","zipCode":"78701","isDefault":true}`
	resp = httptest.NewRecorder()
	AccountAddAddress(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/account/addresses", strings.NewReader(body)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	decodeData(t, resp, &overview)
	if len(overview.Addresses) != 1 || overview.Addresses[0].ID == "" || !overview.Addresses[0].IsDefault {
		t.Fatalf("unexpected addresses %+v", overview.Addresses)
	}

	resp = httptest.NewRecorder()
	AccountAddAddress(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/account/addresses", strings.NewReader(`{"street":"1","city":"A","state":"T","zipCode":"1"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
