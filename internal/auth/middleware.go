package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/paramedia/dispatch/internal/shared/errors"
	"github.com/paramedia/dispatch/internal/shared/metrics"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Middleware authenticates every request: it extracts the bearer token,
// verifies it, and resolves the user's current identity from the credential
// store. A missing or invalid token fails with 401; a token whose user has
// since been deleted fails with 404 (the permission evaluator can no longer
// find them). The resolved identity is placed in the request context.
func Middleware(tokens *Tokens, eval *Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, apperrors.Authentication("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, apperrors.Authentication("invalid authorization header format"))
				return
			}

			userID, err := tokens.Verify(parts[1])
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ident, err := eval.Identity(r.Context(), userID)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the authenticated identity from the request context
func GetIdentity(ctx context.Context) *Identity {
	ident, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return ident
}

// Require gates a route on a permission. The check runs against the
// identity resolved for this request, i.e. the stored permission set, not
// anything embedded in the token. The resource label is only used for
// metrics.
func Require(resource, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := GetIdentity(r.Context())
			if ident == nil {
				writeAuthError(w, apperrors.Authentication("authentication required"))
				return
			}

			allowed := ident.HasPermission(permission)
			metrics.RecordAuthorizationDecision(resource, permission, allowed)

			if !allowed {
				writeAuthError(w, apperrors.Authorization("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*apperrors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
