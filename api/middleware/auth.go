package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/davivienda-ecommerce/storefront-backend/api/responses"
	"github.com/davivienda-ecommerce/storefront-backend/internal/identity"
	pkgAuth "github.com/davivienda-ecommerce/storefront-backend/pkg/auth"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/config"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
)

// IdentityResolver maps the token principal to a stored identity.
type IdentityResolver interface {
	ResolveByEmail(ctx context.Context, email string) (*identity.Identity, error)
}

// Auth validates a bearer token, resolves its email principal and seeds the
// request context with the caller identity.
func Auth(cfg config.JWTConfig, resolver IdentityResolver, logg *logger.Logger) func(http.Handler) http.Handler {
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

			if resolver == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver unavailable"))
				return
			}

			caller, err := resolver.ResolveByEmail(r.Context(), claims.Email)
			if err != nil {
				if pkgerrors.HasReason(err, pkgerrors.ReasonUserNotFound) {
					err = pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unknown principal").WithReason(pkgerrors.ReasonUserNotFound)
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), caller.ID, caller.Email)
			if logg != nil {
				ctx = logg.WithIdentityID(ctx, caller.ID.String())
				ctx = logg.WithIdentityEmail(ctx, caller.Email)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
