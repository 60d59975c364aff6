package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/sweetdelights-backend/api/responses"
	pkgAuth "github.com/angelmondragon/sweetdelights-backend/pkg/auth"
	"github.com/angelmondragon/sweetdelights-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

var errMissingCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")

// Auth validates a bearer token and seeds the request context with the claims.
// The token's sid claim replaces whatever browser session the header named.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), w, claims, logg)))
		})
	}
}

// OptionalAuth attaches claims when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, verifier)
			if err != nil {
				if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), w, claims, logg)))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (*pkgAuth.AccessTokenClaims, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, errMissingCredentials
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func withClaims(ctx context.Context, w http.ResponseWriter, claims *pkgAuth.AccessTokenClaims, logg *logger.Logger) context.Context {
	ctx = WithUserID(ctx, claims.UserID.String())
	ctx = WithRole(ctx, claims.Role)
	ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
	if claims.SessionID != "" {
		ctx = WithSessionID(ctx, claims.SessionID)
		w.Header().Set(SessionHeader, claims.SessionID)
	}

	if logg != nil {
		fields := map[string]any{
			"user_id":    claims.UserID.String(),
			"actor_role": string(claims.Role),
		}
		if claims.SessionID != "" {
			fields["session_id"] = claims.SessionID
		}
		ctx = logg.WithFields(ctx, fields)
	}
	return ctx
}
