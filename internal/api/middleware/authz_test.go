package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/auth"
)

func requestWithIdentity(identity *auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity == nil {
		return req
	}
	ctx := middleware.WithIdentity(context.Background(), identity)
	return req.WithContext(ctx)
}

// --- RequireSuperuser Tests ---

func TestRequireSuperuser_Allowed(t *testing.T) {
	handler := middleware.RequireSuperuser()(okHandler())
	req := requestWithIdentity(&auth.Identity{UserID: uuid.New(), IsSuperuser: true})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSuperuser_Forbidden(t *testing.T) {
	handler := middleware.RequireSuperuser()(okHandler())
	req := requestWithIdentity(&auth.Identity{UserID: uuid.New()})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	env := parseErrorResponse(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "FORBIDDEN", apiErr["code"])
	assert.Equal(t, "Not enough permissions", apiErr["message"])
}

func TestRequireSuperuser_NoIdentity(t *testing.T) {
	handler := middleware.RequireSuperuser()(okHandler())
	req := requestWithIdentity(nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
