package handler_test

import (
	"database/sql"
	"net/http"
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
	"github.com/passforge/passforge/internal/tenant"
)

func setupTenantRouter(t *testing.T, identity *auth.Identity) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewTenantHandler(store.New(db), tenant.NewRepository())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), identity)))
		})
	})
	r.Post("/tenants", h.Create)
	return r, mock
}

func tenantColumns() []string {
	return []string{
		"id", "name", "slug", "description", "logo_url", "website",
		"contact_email", "contact_phone", "address", "city", "country",
		"postal_code", "is_active", "subscription_tier",
		"subscription_status", "max_passes", "created_at", "updated_at",
	}
}

func tenantRow(id uuid.UUID, slug string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(tenantColumns()).
		AddRow(id, "Acme Coffee", slug, nil, nil, nil,
			nil, nil, nil, nil, nil,
			nil, true, tenant.TierFree,
			tenant.StatusActive, 1000, now, now)
}

func superuserIdentity() *auth.Identity {
	return &auth.Identity{UserID: uuid.New(), Email: "root@example.com", IsSuperuser: true}
}

// --- Tenant Create Tests ---

func TestTenantCreate_DuplicateSlug(t *testing.T) {
	router, mock := setupTenantRouter(t, superuserIdentity())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tenants WHERE slug = ").
		WithArgs("acme-coffee").
		WillReturnRows(tenantRow(uuid.New(), "acme-coffee"))
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodPost, "/tenants", map[string]any{
		"name": "Acme Coffee",
		"slug": "acme-coffee",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE_SLUG", env.Error.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantCreate_FreeSlug(t *testing.T) {
	router, mock := setupTenantRouter(t, superuserIdentity())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM tenants WHERE slug = ").
		WithArgs("acme-coffee").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO tenants").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodPost, "/tenants", map[string]any{
		"name": "Acme Coffee",
		"slug": "acme-coffee",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
