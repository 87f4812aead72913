package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/passforge/passforge/internal/api/response"
)

// Recovery converts handler panics into a 500 envelope. The panic value
// and stack are logged with the request that triggered them.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				requestID := GetRequestID(r.Context())
				slog.Error("panic recovered",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"requestId", requestID,
					"stack", string(debug.Stack()),
				)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
