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
	"github.com/passforge/passforge/internal/customer"
	"github.com/passforge/passforge/internal/store"
)

func setupCustomerRouter(t *testing.T, identity *auth.Identity) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewCustomerHandler(store.New(db), customer.NewRepository())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), identity)))
		})
	})
	r.Post("/customers", h.Create)
	return r, mock
}

func customerColumns() []string {
	return []string{
		"id", "email", "phone", "full_name", "tenant_id",
		"email_opt_in", "sms_opt_in", "push_opt_in",
		"tags", "custom_fields", "is_active",
		"created_at", "updated_at",
	}
}

func customerRow(email string, tenantID uuid.UUID) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(customerColumns()).
		AddRow(uuid.New(), email, nil, nil, tenantID,
			true, false, false,
			nil, nil, true,
			now, now)
}

// --- Customer Create Tests ---

func TestCustomerCreate_DuplicateEmailInTenant(t *testing.T) {
	tenantID := uuid.New()
	router, mock := setupCustomerRouter(t, tenantIdentity(tenantID))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM customers WHERE tenant_id = (.+) AND email = ").
		WithArgs(tenantID, "dup@example.com").
		WillReturnRows(customerRow("dup@example.com", tenantID))
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodPost, "/customers", map[string]any{
		"email": "dup@example.com",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DUPLICATE_EMAIL", env.Error.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerCreate_FreeEmail(t *testing.T) {
	tenantID := uuid.New()
	router, mock := setupCustomerRouter(t, tenantIdentity(tenantID))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM customers WHERE tenant_id = (.+) AND email = ").
		WithArgs(tenantID, "new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodPost, "/customers", map[string]any{
		"email": "new@example.com",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
