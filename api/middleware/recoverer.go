package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-raised so net/http can drop the connection quietly.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{"method": r.Method, "path": r.URL.Path}
					if sid := SessionIDFromContext(ctx); sid != "" {
						fields["session_id"] = sid
					}
					ctx = logg.WithFields(ctx, fields)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storefront handler crashed"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
