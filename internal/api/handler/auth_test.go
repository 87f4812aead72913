package handler_test

import (
	"bytes"
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

	"github.com/passforge/passforge/internal/api/handler"
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/store"
)

const testBcryptCost = 4 // low cost for fast tests

func setupAuthHandler(t *testing.T) (*handler.AuthHandler, *auth.Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	tokens := auth.NewTokenService("test-secret", time.Hour, 7*24*time.Hour)
	svc := auth.NewService(auth.NewRepository(), tokens, testBcryptCost)
	return handler.NewAuthHandler(st, svc), svc, mock
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func userColumns() []string {
	return []string{
		"id", "email", "password_hash", "full_name",
		"is_active", "is_superuser", "tenant_id",
		"created_at", "updated_at",
	}
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	h, _, mock := setupAuthHandler(t)

	hash, err := auth.HashPassword("sw0rdfish", testBcryptCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(uuid.New(), "ada@example.com", hash, nil, true, false, nil, now, now))
	mock.ExpectCommit()

	rec := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"username": "ada@example.com",
		"password": "sw0rdfish",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var pair auth.TokenPair
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	h, _, mock := setupAuthHandler(t)

	hash, err := auth.HashPassword("correct", testBcryptCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(uuid.New(), "ada@example.com", hash, nil, true, false, nil, now, now))
	mock.ExpectRollback()

	rec := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"username": "ada@example.com",
		"password": "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	assert.Equal(t, "Incorrect email or password", env.Error.Message)
}

func TestLogin_UnknownEmailSameMessage(t *testing.T) {
	h, _, mock := setupAuthHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"username": "ghost@example.com",
		"password": "whatever",
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Incorrect email or password", env.Error.Message)
}

func TestLogin_MissingFields(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

// --- Refresh Tests ---

func TestRefresh_RejectsAccessToken(t *testing.T) {
	h, svc, mock := setupAuthHandler(t)

	access, err := svc.Tokens().IssueAccessToken(uuid.New())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": access,
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestRefresh_UserGone(t *testing.T) {
	h, svc, mock := setupAuthHandler(t)
	userID := uuid.New()

	refresh, err := svc.Tokens().IssueRefreshToken(userID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ").
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh_InactiveUser(t *testing.T) {
	h, svc, mock := setupAuthHandler(t)
	userID := uuid.New()

	refresh, err := svc.Tokens().IssueRefreshToken(userID)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(userID, "ada@example.com", "x", nil, false, false, nil, now, now))
	mock.ExpectRollback()

	rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	h, _, mock := setupAuthHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"email":    "new@example.com",
		"password": "longenough",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)

	var user struct {
		Email       string `json:"email"`
		IsActive    bool   `json:"isActive"`
		IsSuperuser bool   `json:"isSuperuser"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "new@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
}

func TestRegister_ShortPassword(t *testing.T) {
	h, _, _ := setupAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"email":    "new@example.com",
		"password": "short",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
