package middleware

import (
	"net/http"

	"github.com/passforge/passforge/internal/api/response"
)

// RequireSuperuser returns middleware that rejects non-superuser
// identities with 403.
func RequireSuperuser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			if !identity.IsSuperuser {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
