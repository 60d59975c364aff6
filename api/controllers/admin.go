package controllers

import (
	"net/http"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	"github.com/angelmondragon/sweetdelights-backend/api/validators"
	"github.com/angelmondragon/sweetdelights-backend/internal/admin"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

const (
	defaultCustomerLimit = 50
	maxCustomerLimit     = 200
)

func AdminDashboard(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

func AdminProducts(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func AdminOrders(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.Orders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// AdminCustomers lists registered users, newest first.
func AdminCustomers(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultCustomerLimit, 1, maxCustomerLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customers, err := svc.Customers(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}
