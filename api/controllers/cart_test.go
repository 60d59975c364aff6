package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cartsvc "github.com/angelmondragon/sweetdelights-backend/internal/cart"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

func newCartFixture(t *testing.T) (*store.Store, cartsvc.Service) {
	t.Helper()
	st, err := store.NewStore(store.NewMemoryPersister(), logger.Nop(), nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	svc, err := cartsvc.NewService(st, loadCatalog(t))
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return st, svc
}

func cartInput(productID string) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{ProductID: productID, Quantity: 1}
}

func TestCartAddThenFetch(t *testing.T) {
	_, svc := newCartFixture(t)

	req := newRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"1","quantity":2,"size":"8 inch","frosting":"Buttercream","customMessage":"Happy Birthday"}`))
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/cart", nil))
	var view cartsvc.View
	decodeData(t, resp, &view)
	if view.ItemCount != 2 || len(view.Items) != 1 {
		t.Fatalf("unexpected cart %+v", view)
	}
	if view.Items[0].UnitPrice.String() != "59.99" || view.Quote.Subtotal.String() != "119.98" {
		t.Fatalf("unexpected pricing line=%s subtotal=%s", view.Items[0].UnitPrice, view.Quote.Subtotal)
	}
	if view.Items[0].CustomMessage != "Happy Birthday" {
		t.Fatalf("unexpected message %q", view.Items[0].CustomMessage)
	}
}

func TestCartAddRejectsInvalidBody(t *testing.T) {
	_, svc := newCartFixture(t)
	cases := []struct {
		body string
		want int
	}{
		{`{"productId":"1","size":"2 inch"}`, http.StatusBadRequest},
		{`{"productId":"1","unknown":true}`, http.StatusBadRequest},
		{`{"productId":"nope"}`, http.StatusNotFound},
		{`{"productId":"1","customMessage":"` + strings.Repeat("a", 51) + `"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		CartAddItem(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(tc.body)))
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.body, tc.want, resp.Code)
		}
	}
}

func TestCartUpdateRemoveClear(t *testing.T) {
	st, svc := newCartFixture(t)
	for _, body := range []string{`{"productId":"1"}`, `{"productId":"2"}`} {
		resp := httptest.NewRecorder()
		CartAddItem(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)))
		if resp.Code != http.StatusCreated {
			t.Fatalf("seed: %d", resp.Code)
		}
	}

	req := withURLParam(newRequest(http.MethodPatch, "/api/v1/cart/items/1", strings.NewReader(`{"quantity":0}`)), "productId", "1")
	resp := httptest.NewRecorder()
	CartUpdateQuantity(svc, nil).ServeHTTP(resp, req)
	var view cartsvc.View
	decodeData(t, resp, &view)
	if view.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", view.Items[0].Quantity)
	}

	req = withURLParam(newRequest(http.MethodDelete, "/api/v1/cart/items/1", nil), "productId", "1")
	resp = httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(resp, req)
	decodeData(t, resp, &view)
	if len(view.Items) != 1 || view.Items[0].Cake.ID != "2" {
		t.Fatalf("expected only cake 2 left, got %+v", view.Items)
	}

	resp = httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/api/v1/cart", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	state, err := st.Load(httptest.NewRequest(http.MethodGet, "/", nil).Context(), testSession)
	if err != nil || len(state.Cart) != 0 {
		t.Fatalf("expected empty persisted cart, got %+v err=%v", state.Cart, err)
	}
}

func TestCartRequiresSession(t *testing.T) {
	_, svc := newCartFixture(t)
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSessionStateRehydrates(t *testing.T) {
	st, svc := newCartFixture(t)
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"2","quantity":2}`)))

	resp = httptest.NewRecorder()
	SessionState(st, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/session", nil))
	var payload sessionPayload
	decodeData(t, resp, &payload)
	if payload.SessionID != testSession || payload.ItemCount != 2 || payload.CartTotal.String() != "96.5" {
		t.Fatalf("unexpected session payload %+v", payload)
	}
	if payload.State.User != nil || payload.State.IsAdmin {
		t.Fatalf("expected anonymous session")
	}
}
