package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

// SessionHeader carries the browser session id between client and API.
const SessionHeader = "X-Session-Id"

// Session resolves the browser session for the request, minting one when the
// client sends none (or garbage), and echoes it back on the response.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
			}

			w.Header().Set(SessionHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
