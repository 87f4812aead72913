package handler_test

import (
	"database/sql"
	"encoding/json"
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
	"github.com/passforge/passforge/internal/pass"
	"github.com/passforge/passforge/internal/store"
	"github.com/passforge/passforge/internal/template"
)

func setupPassRouter(t *testing.T, identity *auth.Identity) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewPassHandler(store.New(db),
		pass.NewRepository(), template.NewRepository(), customer.NewRepository(),
		"pass.com.passforge.test")

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), identity)))
		})
	})
	r.Get("/passes/serial/{serialNumber}", h.GetBySerial)
	return r, mock
}

func passColumns() []string {
	return []string{
		"id", "serial_number", "pass_type_id", "authentication_token",
		"tenant_id", "template_id", "customer_id", "campaign_id",
		"pass_data", "is_voided", "is_redeemed", "redeemed_at",
		"expires_at", "created_at", "updated_at",
	}
}

func passRow(serial string, tenantID uuid.UUID) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(passColumns()).
		AddRow(uuid.New(), serial, "pass.com.passforge.test", "deadbeef",
			tenantID, uuid.New(), uuid.New(), nil,
			nil, false, false, nil,
			nil, now, now)
}

// --- Pass Serial Lookup Tests ---

func TestPassGetBySerial_Success(t *testing.T) {
	tenantID := uuid.New()
	router, mock := setupPassRouter(t, tenantIdentity(tenantID))
	serial := "0d4f2a6b8c1e4e0f9a3b5c7d9e1f2a3b"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM passes WHERE serial_number = ").
		WithArgs(serial, true).
		WillReturnRows(passRow(serial, tenantID))
	mock.ExpectCommit()

	rec := doJSON(t, router, http.MethodGet, "/passes/serial/"+serial, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error)

	var resp struct {
		SerialNumber string `json:"serialNumber"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, serial, resp.SerialNumber)
}

func TestPassGetBySerial_NotFound(t *testing.T) {
	router, mock := setupPassRouter(t, tenantIdentity(uuid.New()))
	serial := "unknown-serial"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM passes WHERE serial_number = ").
		WithArgs(serial, true).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodGet, "/passes/serial/"+serial, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Pass not found", env.Error.Message)
}

func TestPassGetBySerial_OtherTenantIsForbidden(t *testing.T) {
	router, mock := setupPassRouter(t, tenantIdentity(uuid.New()))
	serial := "0d4f2a6b8c1e4e0f9a3b5c7d9e1f2a3b"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM passes WHERE serial_number = ").
		WithArgs(serial, true).
		WillReturnRows(passRow(serial, uuid.New()))
	mock.ExpectRollback()

	rec := doJSON(t, router, http.MethodGet, "/passes/serial/"+serial, nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}
