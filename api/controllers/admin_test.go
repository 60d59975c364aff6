package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/sweetdelights-backend/internal/admin"
	"github.com/angelmondragon/sweetdelights-backend/internal/users"
)

func newAdminFixture(t *testing.T) (admin.Service, users.Repository) {
	t.Helper()
	repo := users.NewMemoryRepository()
	svc, err := admin.NewService(loadCatalog(t), repo)
	if err != nil {
		t.Fatalf("admin service: %v", err)
	}
	return svc, repo
}

func TestAdminDashboard(t *testing.T) {
	svc, _ := newAdminFixture(t)
	resp := httptest.NewRecorder()
	AdminDashboard(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil))

	var dashboard admin.Dashboard
	decodeData(t, resp, &dashboard)
	if len(dashboard.Stats) != 4 || len(dashboard.PopularProducts) != admin.PopularCount || len(dashboard.RecentOrders) != 3 {
		t.Fatalf("unexpected dashboard %+v", dashboard)
	}
}

func TestAdminCustomersLimit(t *testing.T) {
	svc, repo := newAdminFixture(t)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := repo.Create(context.Background(), users.CreateUserDTO{Email: email, Name: "n", PasswordHash: "h"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp := httptest.NewRecorder()
	AdminCustomers(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/customers?limit=2", nil))
	var customers []users.UserDTO
	decodeData(t, resp, &customers)
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers got %d", len(customers))
	}

	for _, limit := range []string{"0", "abc", "1000"} {
		resp = httptest.NewRecorder()
		AdminCustomers(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/customers?limit="+limit, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("limit %s: expected 400 got %d", limit, resp.Code)
		}
	}
}

func TestAdminProductsAndOrders(t *testing.T) {
	svc, _ := newAdminFixture(t)

	resp := httptest.NewRecorder()
	AdminProducts(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil))
	var products []map[string]any
	decodeData(t, resp, &products)
	if len(products) != 12 {
		t.Fatalf("expected 12 products got %d", len(products))
	}

	resp = httptest.NewRecorder()
	AdminOrders(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil))
	var orders []admin.OrderSummary
	decodeData(t, resp, &orders)
	if len(orders) != 3 || orders[0].ID != "ORD-001" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}
