package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	pkgAuth "github.com/angelmondragon/bookstore-backend/pkg/auth"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), logg, token, claims)))
		})
	}
}

// OptionalAuth attaches the claims when a valid bearer token is present and
// lets anonymous requests through untouched. A malformed token is rejected so
// a shopper who believes they are signed in never lands in a guest cart.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), logg, token, claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func withClaims(ctx context.Context, logg *logger.Logger, token string, claims *pkgAuth.AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID)
	ctx = context.WithValue(ctx, ctxToken, token)
	ctx = context.WithValue(ctx, ctxLoginID, claims.LoginID())
	if logg != nil {
		ctx = logg.WithUserID(ctx, claims.UserID)
		if id := claims.LoginID(); id != "" {
			ctx = logg.WithLoginID(ctx, id)
		}
	}
	return ctx
}
