package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// Customer represents a row in the customers table: an end-user who
// receives passes. Email is unique within a tenant.
type Customer struct {
	ID           uuid.UUID
	Email        string
	Phone        *string
	FullName     *string
	TenantID     uuid.UUID
	EmailOptIn   bool
	SMSOptIn     bool
	PushOptIn    bool
	Tags         []byte // jsonb
	CustomFields []byte // jsonb
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
func (c *Customer) OwnerTenant() *uuid.UUID {
	return &c.TenantID
}

// Update lists the mutable fields of a customer. Nil fields are left
// unchanged.
type Update struct {
	Email        *string
	Phone        *string
	FullName     *string
	EmailOptIn   *bool
	SMSOptIn     *bool
	PushOptIn    *bool
	Tags         []byte
	CustomFields []byte
	IsActive     *bool
}

// Apply assigns the non-nil fields onto c.
func (up Update) Apply(c *Customer) {
	if up.Email != nil {
		c.Email = *up.Email
	}
	if up.Phone != nil {
		c.Phone = up.Phone
	}
	if up.FullName != nil {
		c.FullName = up.FullName
	}
	if up.EmailOptIn != nil {
		c.EmailOptIn = *up.EmailOptIn
	}
	if up.SMSOptIn != nil {
		c.SMSOptIn = *up.SMSOptIn
	}
	if up.PushOptIn != nil {
		c.PushOptIn = *up.PushOptIn
	}
	if up.Tags != nil {
		c.Tags = up.Tags
	}
	if up.CustomFields != nil {
		c.CustomFields = up.CustomFields
	}
	if up.IsActive != nil {
		c.IsActive = *up.IsActive
	}
}

// mapper maps Customer onto the customers table. Customers are deleted
// physically.
type mapper struct{}

func (mapper) Table() string { return "customers" }

func (mapper) Columns() []string {
	return []string{
		"id", "email", "phone", "full_name", "tenant_id",
		"email_opt_in", "sms_opt_in", "push_opt_in",
		"tags", "custom_fields", "is_active",
		"created_at", "updated_at",
	}
}

func (mapper) Values(c *Customer) []any {
	return []any{
		c.ID, c.Email, c.Phone, c.FullName, c.TenantID,
		c.EmailOptIn, c.SMSOptIn, c.PushOptIn,
		c.Tags, c.CustomFields, c.IsActive,
		c.CreatedAt, c.UpdatedAt,
	}
}

func (mapper) Fields(c *Customer) []any {
	return []any{
		&c.ID, &c.Email, &c.Phone, &c.FullName, &c.TenantID,
		&c.EmailOptIn, &c.SMSOptIn, &c.PushOptIn,
		&c.Tags, &c.CustomFields, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

func (mapper) ID(c *Customer) uuid.UUID { return c.ID }

func (mapper) SetCreated(c *Customer, id uuid.UUID, now time.Time) {
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (mapper) SetUpdated(c *Customer, now time.Time) { c.UpdatedAt = now }

func (mapper) DeletePolicy() repo.DeletePolicy { return repo.DeletePhysical }
