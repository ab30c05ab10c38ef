package middleware

import (
	"context"
	"net/http"
	"strings"

	"inventory-api/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityResolver turns a bearer token into a caller identity
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// Authenticate resolves the bearer token, if any, and stores the caller on the
// request context. Missing or unknown tokens yield an anonymous caller; only
// a failing session store aborts the request.
func Authenticate(resolver IdentityResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Error("Failed to resolve session", zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if token != "" && !identity.Authenticated() {
				logger.Debug("Bearer token did not resolve", zap.String("path", r.URL.Path))
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAuth rejects anonymous callers with 401
func RequireAuth(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFrom(r.Context()).Authenticated() {
				logger.Debug("Rejected anonymous request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// WithIdentity stores the caller on ctx
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the caller stored on ctx, anonymous if none
func IdentityFrom(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey).(domain.Identity)
	return identity
}

// GetUserID extracts the authenticated user id from the request context
func GetUserID(ctx context.Context) (string, bool) {
	identity := IdentityFrom(ctx)
	return identity.UserID(), identity.Authenticated()
}
