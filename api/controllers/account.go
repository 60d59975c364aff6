package controllers

import (
	"net/http"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	"github.com/angelmondragon/sweetdelights-backend/api/validators"
	"github.com/angelmondragon/sweetdelights-backend/internal/account"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

func AccountOverview(svc account.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		overview, err := svc.Overview(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}

// AccountAddAddress saves a delivery address on the signed-in user.
func AccountAddAddress(svc account.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload account.AddressInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.AddAddress(r.Context(), sessionID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, overview)
	}
}
