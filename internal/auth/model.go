package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     *string
	IsActive     bool
	IsSuperuser  bool
	TenantID     *uuid.UUID // nil until the user joins a tenant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
func (u *User) OwnerTenant() *uuid.UUID {
	return u.TenantID
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	TenantID    *uuid.UUID // nil for superuser or pre-tenant users
	IsSuperuser bool
}

// UserUpdate lists the mutable fields of a user. Nil fields are left
// unchanged.
type UserUpdate struct {
	Email       *string
	FullName    *string
	Password    *string // hashed by the service before Apply
	IsActive    *bool
	IsSuperuser *bool
	TenantID    *uuid.UUID
}

// Apply assigns the non-nil fields onto u. The password is expected to
// already be hashed.
func (up UserUpdate) Apply(u *User) {
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.FullName != nil {
		u.FullName = up.FullName
	}
	if up.Password != nil {
		u.PasswordHash = *up.Password
	}
	if up.IsActive != nil {
		u.IsActive = *up.IsActive
	}
	if up.IsSuperuser != nil {
		u.IsSuperuser = *up.IsSuperuser
	}
	if up.TenantID != nil {
		u.TenantID = up.TenantID
	}
}

// userMapper maps User onto the users table. Users are deleted
// physically.
type userMapper struct{}

func (userMapper) Table() string { return "users" }

func (userMapper) Columns() []string {
	return []string{
		"id", "email", "password_hash", "full_name",
		"is_active", "is_superuser", "tenant_id",
		"created_at", "updated_at",
	}
}

func (userMapper) Values(u *User) []any {
	return []any{
		u.ID, u.Email, u.PasswordHash, u.FullName,
		u.IsActive, u.IsSuperuser, u.TenantID,
		u.CreatedAt, u.UpdatedAt,
	}
}

func (userMapper) Fields(u *User) []any {
	return []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.IsActive, &u.IsSuperuser, &u.TenantID,
		&u.CreatedAt, &u.UpdatedAt,
	}
}

func (userMapper) ID(u *User) uuid.UUID { return u.ID }

func (userMapper) SetCreated(u *User, id uuid.UUID, now time.Time) {
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
}

func (userMapper) SetUpdated(u *User, now time.Time) { u.UpdatedAt = now }

func (userMapper) DeletePolicy() repo.DeletePolicy { return repo.DeletePhysical }
