package middleware_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/store"
)

func setupAuth(t *testing.T) (func(http.Handler) http.Handler, *auth.TokenService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	tokens := auth.NewTokenService("test-secret", time.Hour, 7*24*time.Hour)
	return middleware.Auth(st, auth.NewRepository(), tokens), tokens, mock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func identityCapture(captured **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err)
	return env
}

func userRow(id uuid.UUID, active, superuser bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "full_name",
		"is_active", "is_superuser", "tenant_id",
		"created_at", "updated_at",
	}).AddRow(id, "ada@example.com", "x", nil, active, superuser, nil, now, now)
}

// --- Auth Tests ---

func TestAuth_MissingToken(t *testing.T) {
	authed, _, _ := setupAuth(t)

	var identity *auth.Identity
	handler := authed(identityCapture(&identity))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseErrorResponse(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "UNAUTHORIZED", apiErr["code"])
	assert.Equal(t, "Bearer token is required", apiErr["message"])
	assert.Nil(t, identity)
}

func TestAuth_MalformedHeader(t *testing.T) {
	authed, _, _ := setupAuth(t)

	handler := authed(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	authed, _, _ := setupAuth(t)

	handler := authed(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseErrorResponse(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "Could not validate credentials", apiErr["message"])
}

func TestAuth_RejectsRefreshToken(t *testing.T) {
	authed, tokens, _ := setupAuth(t)

	refresh, err := tokens.IssueRefreshToken(uuid.New())
	require.NoError(t, err)

	handler := authed(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseErrorResponse(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "Access token required", apiErr["message"])
}

func TestAuth_UserNotFound(t *testing.T) {
	authed, tokens, mock := setupAuth(t)
	userID := uuid.New()

	access, err := tokens.IssueAccessToken(userID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ").
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	handler := authed(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_InactiveUser(t *testing.T) {
	authed, tokens, mock := setupAuth(t)
	userID := uuid.New()

	access, err := tokens.IssueAccessToken(userID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ").
		WithArgs(userID).
		WillReturnRows(userRow(userID, false, false))
	mock.ExpectCommit()

	handler := authed(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseErrorResponse(t, w)
	apiErr := env["error"].(map[string]interface{})
	assert.Equal(t, "INACTIVE_USER", apiErr["code"])
}

func TestAuth_ValidToken(t *testing.T) {
	authed, tokens, mock := setupAuth(t)
	userID := uuid.New()

	access, err := tokens.IssueAccessToken(userID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ").
		WithArgs(userID).
		WillReturnRows(userRow(userID, true, true))
	mock.ExpectCommit()

	var identity *auth.Identity
	handler := authed(identityCapture(&identity))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, identity)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.True(t, identity.IsSuperuser)
	assert.Nil(t, identity.TenantID)
}
