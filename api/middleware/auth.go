package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/nearbuy-backend/api/responses"
	pkgAuth "github.com/angelmondragon/nearbuy-backend/pkg/auth"
	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
)

// Auth validates a bearer token, seeds the request context with the
// customer and forwards the token to the remote store.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithCustomer(r.Context(), Customer{ID: claims.CustomerID, Name: claims.Name, Phone: claims.Phone})
			ctx = remote.ContextWithToken(ctx, token)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, claims.CustomerID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
