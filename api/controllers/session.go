package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/sweetdelights-backend/api/middleware"
	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	"github.com/angelmondragon/sweetdelights-backend/internal/pricing"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type stateLoader interface {
	Load(ctx context.Context, sessionID string) (store.State, error)
}

type sessionPayload struct {
	SessionID string          `json:"sessionId"`
	State     store.State     `json:"state"`
	ItemCount int             `json:"itemCount"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

// SessionState returns the rehydrated storefront state for the caller's session.
func SessionState(st stateLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := st.Load(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionPayload{
			SessionID: sessionID,
			State:     state,
			ItemCount: state.ItemCount(),
			CartTotal: pricing.Cents(state.CartTotal()),
		})
	}
}

func sessionIDFromRequest(r *http.Request) (string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return sessionID, nil
}
