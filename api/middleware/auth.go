package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pawpantry/storefront-api/api/responses"
	pkgAuth "github.com/pawpantry/storefront-api/pkg/auth"
	"github.com/pawpantry/storefront-api/pkg/config"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/logger"
)

// Auth requires a valid identity-provider bearer token.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, true)
}

// OptionalAuth attaches the caller when a token is sent and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, false)
}

func authenticate(cfg config.JWTConfig, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			userID, _ := claims.UserID()
			role := claims.StoreRole(cfg.AdminRole)

			ctx := WithIdentity(r.Context(), userID, role, claims.Email)
			if logg != nil {
				ctx = withCallerFields(ctx, logg, userID.String(), role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withCallerFields(ctx context.Context, logg *logger.Logger, userID, role string) context.Context {
	ctx = logg.WithUserID(ctx, userID)
	return logg.WithActorRole(ctx, role)
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
