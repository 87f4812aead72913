// Package authz enforces tenant isolation. Every tenant-scoped record
// is checked against the caller's identity through Authorize; handlers
// resolve existence first, so a missing record surfaces as not-found and
// a foreign record as forbidden.
package authz

import (
	"errors"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/auth"
)

// ErrForbidden is returned when an authenticated identity may not act
// on a record.
var ErrForbidden = errors.New("not enough permissions")

// TenantScoped is implemented by records owned by a tenant.
type TenantScoped interface {
	OwnerTenant() *uuid.UUID
}

// Authorize reports whether identity may act on rec: allowed when the
// identity is a superuser, or when both tenant ids are set and equal.
func Authorize(identity *auth.Identity, rec TenantScoped) error {
	if identity == nil {
		return ErrForbidden
	}
	if identity.IsSuperuser {
		return nil
	}

	owner := rec.OwnerTenant()
	if identity.TenantID == nil || owner == nil {
		return ErrForbidden
	}
	if *identity.TenantID != *owner {
		return ErrForbidden
	}
	return nil
}
