package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type claimsKey struct{}

// AuthMiddleware rejects requests without a valid bearer token with 401 and
// stores the token claims in the request context. Browsers cannot set
// headers on a websocket upgrade, so a "token" query parameter is accepted
// for GET requests.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Unauthorized(w, "missing bearer token")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			logger.WithCtx(r.Context()).Warn("auth: rejected token", "error", err)
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("token")
	}
	return ""
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromCtx returns the claims stored by AuthMiddleware.
func ClaimsFromCtx(r *http.Request) (*auth.Claims, bool) {
	c, ok := r.Context().Value(claimsKey{}).(*auth.Claims)
	return c, ok && c != nil
}

func RoleFromCtx(r *http.Request) (string, bool) {
	c, ok := ClaimsFromCtx(r)
	if !ok {
		return "", false
	}
	return c.Role, true
}

func UserIDFromCtx(r *http.Request) (uint, bool) {
	c, ok := ClaimsFromCtx(r)
	if !ok {
		return 0, false
	}
	return c.UserID, true
}
