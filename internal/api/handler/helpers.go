package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/auth"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	maxBodyBytes = 1 << 20
)

// pagination extracts skip/limit query parameters with defaults.
func pagination(r *http.Request) (skip, limit int) {
	skip = 0
	limit = defaultLimit

	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	return skip, limit
}

// idParam parses the {id} URL parameter as a UUID.
func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// resolveTenant picks the tenant a write operates on: the caller's own
// tenant, or an explicit tenant id when the caller is a superuser.
func resolveTenant(identity *auth.Identity, explicit *string) (uuid.UUID, bool) {
	if identity.IsSuperuser && explicit != nil {
		id, err := uuid.Parse(*explicit)
		return id, err == nil
	}
	if identity.TenantID != nil {
		return *identity.TenantID, true
	}
	return uuid.UUID{}, false
}

// listTenant picks the tenant a list operation is scoped to: the
// caller's own tenant, or ?tenantId= when the caller is a superuser.
func listTenant(identity *auth.Identity, r *http.Request) (uuid.UUID, bool) {
	if identity.IsSuperuser {
		if v := r.URL.Query().Get("tenantId"); v != "" {
			id, err := uuid.Parse(v)
			return id, err == nil
		}
	}
	if identity.TenantID != nil {
		return *identity.TenantID, true
	}
	return uuid.UUID{}, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
