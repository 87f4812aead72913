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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passforge/passforge/internal/api/handler"
	"github.com/passforge/passforge/internal/api/middleware"
	"github.com/passforge/passforge/internal/auth"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
)

func setupTemplateRouter(t *testing.T, identity *auth.Identity) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewTemplateHandler(store.New(db), template.NewRepository())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), identity)))
		})
	})
	r.Post("/templates", h.Create)
	r.Get("/templates", h.List)
	r.Get("/templates/{id}", h.GetByID)
	r.Delete("/templates/{id}", h.Delete)
	return r, mock
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func templateColumns() []string {
	return []string{
		"id", "name", "description", "pass_type", "tenant_id",
		"created_by", "design", "background_color", "foreground_color",
		"label_color", "logo_image", "icon_image", "nfc_enabled",
		"nfc_message", "is_active", "is_archived",
		"created_at", "updated_at",
	}
}

func templateRow(id, tenantID uuid.UUID) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(templateColumns()).
		AddRow(id, "Coffee Card", nil, template.TypeStoreCard, tenantID,
			uuid.New(), []byte(`{"fields":[]}`), nil, nil,
			nil, nil, nil, false,
			nil, true, false,
			now, now)
}

func tenantIdentity(tenantID uuid.UUID) *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), Email: "ada@example.com", TenantID: &tenantID}
}

// --- Template Create Tests ---

func TestTemplateCreate_ScopedToIdentityTenant(t *testing.T) {
	tenantID := uuid.New()
	router, mock := setupTemplateRouter(t, tenantIdentity(tenantID))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO templates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodPost, "/templates", map[string]any{
		"name":     "Coffee Card",
		"passType": "storeCard",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)

	var resp struct {
		TenantID string          `json:"tenantId"`
		PassType string          `json:"passType"`
		IsActive bool            `json:"isActive"`
		Design   json.RawMessage `json:"design"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, tenantID.String(), resp.TenantID)
	assert.Equal(t, "storeCard", resp.PassType)
	assert.True(t, resp.IsActive)
	assert.JSONEq(t, "{}", string(resp.Design))
}

func TestTemplateCreate_TenantlessUser(t *testing.T) {
	router, _ := setupTemplateRouter(t, &auth.Identity{UserID: uuid.New()})

	rec := doJSON(t, router, http.MethodPost, "/templates", map[string]any{
		"name": "Coffee Card",
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "User does not belong to a tenant", env.Error.Message)
}

func TestTemplateCreate_MissingName(t *testing.T) {
	router, _ := setupTemplateRouter(t, tenantIdentity(uuid.New()))

	rec := doJSON(t, router, http.MethodPost, "/templates", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

// --- Template List Tests ---

func TestTemplateList_TenantlessUserSeesNothing(t *testing.T) {
	router, _ := setupTemplateRouter(t, &auth.Identity{UserID: uuid.New()})

	rec := doJSON(t, router, http.MethodGet, "/templates", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Data)
	assert.Equal(t, 0, env.Meta.Count)
}

// --- Template Read Tests ---

func TestTemplateGet_NotFound(t *testing.T) {
	router, mock := setupTemplateRouter(t, tenantIdentity(uuid.New()))
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = ").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodGet, "/templates/"+id.String(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestTemplateGet_OtherTenantIsForbidden(t *testing.T) {
	router, mock := setupTemplateRouter(t, tenantIdentity(uuid.New()))
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = ").
		WithArgs(id).
		WillReturnRows(templateRow(id, uuid.New()))
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodGet, "/templates/"+id.String(), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestTemplateGet_SuperuserCrossesTenants(t *testing.T) {
	router, mock := setupTemplateRouter(t, &auth.Identity{UserID: uuid.New(), IsSuperuser: true})
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = ").
		WithArgs(id).
		WillReturnRows(templateRow(id, uuid.New()))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodGet, "/templates/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTemplateGet_BadID(t *testing.T) {
	router, _ := setupTemplateRouter(t, tenantIdentity(uuid.New()))

	rec := doJSON(t, router, http.MethodGet, "/templates/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_ID", env.Error.Code)
}

// --- Template Delete Tests ---

func TestTemplateDelete_ArchivesRow(t *testing.T) {
	tenantID := uuid.New()
	router, mock := setupTemplateRouter(t, tenantIdentity(tenantID))
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM templates WHERE id = ").
		WithArgs(id).
		WillReturnRows(templateRow(id, tenantID))
	mock.ExpectExec(`UPDATE templates SET is_archived = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodDelete, "/templates/"+id.String(), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}
