package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/passforge/passforge/internal/api/response"
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

const identityKey contextKey = "identity"

// Auth is middleware that verifies the bearer token from the
// Authorization header and resolves it to an Identity. Refresh tokens
// are not accepted for resource access. The referenced user must still
// exist and be active.
func Auth(st *store.Store, users *auth.Repository, tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token := bearerToken(r)
			if token == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials", requestID)
				return
			}
			if claims.Refresh {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required", requestID)
				return
			}

			userID, err := claims.SubjectID()
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials", requestID)
				return
			}

			var user *auth.User
			err = st.WithSession(r.Context(), func(sess *store.Session) error {
				user, err = users.GetByID(r.Context(), sess, userID)
				return err
			})
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
					return
				}
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}
			if !user.IsActive {
				response.Err(w, http.StatusBadRequest, "INACTIVE_USER", "Inactive user", requestID)
				return
			}

			identity := &auth.Identity{
				UserID:      user.ID,
				Email:       user.Email,
				TenantID:    user.TenantID,
				IsSuperuser: user.IsSuperuser,
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a context carrying the given Identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
