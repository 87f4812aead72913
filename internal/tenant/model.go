package tenant

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// Subscription tiers.
const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"
)

// Subscription statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)

// Tenant represents a row in the tenants table: the organizational
// owner of templates, passes, customers, campaigns and locations.
type Tenant struct {
	ID                 uuid.UUID
	Name               string
	Slug               string
	Description        *string
	LogoURL            *string
	Website            *string
	ContactEmail       *string
	ContactPhone       *string
	Address            *string
	City               *string
	Country            *string
	PostalCode         *string
	IsActive           bool
	SubscriptionTier   string
	SubscriptionStatus string
	MaxPasses          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
// A tenant owns itself.
func (t *Tenant) OwnerTenant() *uuid.UUID {
	return &t.ID
}

// Update lists the mutable fields of a tenant. Nil fields are left
// unchanged.
type Update struct {
	Name               *string
	Slug               *string
	Description        *string
	LogoURL            *string
	Website            *string
	ContactEmail       *string
	ContactPhone       *string
	Address            *string
	City               *string
	Country            *string
	PostalCode         *string
	IsActive           *bool
	SubscriptionTier   *string
	SubscriptionStatus *string
	MaxPasses          *int
}

// Apply assigns the non-nil fields onto t.
func (up Update) Apply(t *Tenant) {
	if up.Name != nil {
		t.Name = *up.Name
	}
	if up.Slug != nil {
		t.Slug = *up.Slug
	}
	if up.Description != nil {
		t.Description = up.Description
	}
	if up.LogoURL != nil {
		t.LogoURL = up.LogoURL
	}
	if up.Website != nil {
		t.Website = up.Website
	}
	if up.ContactEmail != nil {
		t.ContactEmail = up.ContactEmail
	}
	if up.ContactPhone != nil {
		t.ContactPhone = up.ContactPhone
	}
	if up.Address != nil {
		t.Address = up.Address
	}
	if up.City != nil {
		t.City = up.City
	}
	if up.Country != nil {
		t.Country = up.Country
	}
	if up.PostalCode != nil {
		t.PostalCode = up.PostalCode
	}
	if up.IsActive != nil {
		t.IsActive = *up.IsActive
	}
	if up.SubscriptionTier != nil {
		t.SubscriptionTier = *up.SubscriptionTier
	}
	if up.SubscriptionStatus != nil {
		t.SubscriptionStatus = *up.SubscriptionStatus
	}
	if up.MaxPasses != nil {
		t.MaxPasses = *up.MaxPasses
	}
}

// mapper maps Tenant onto the tenants table. Tenants are never deleted
// through the repository; deactivation flips IsActive via Update.
type mapper struct{}

func (mapper) Table() string { return "tenants" }

func (mapper) Columns() []string {
	return []string{
		"id", "name", "slug", "description", "logo_url", "website",
		"contact_email", "contact_phone", "address", "city", "country",
		"postal_code", "is_active", "subscription_tier",
		"subscription_status", "max_passes", "created_at", "updated_at",
	}
}

func (mapper) Values(t *Tenant) []any {
	return []any{
		t.ID, t.Name, t.Slug, t.Description, t.LogoURL, t.Website,
		t.ContactEmail, t.ContactPhone, t.Address, t.City, t.Country,
		t.PostalCode, t.IsActive, t.SubscriptionTier,
		t.SubscriptionStatus, t.MaxPasses, t.CreatedAt, t.UpdatedAt,
	}
}

func (mapper) Fields(t *Tenant) []any {
	return []any{
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.LogoURL, &t.Website,
		&t.ContactEmail, &t.ContactPhone, &t.Address, &t.City, &t.Country,
		&t.PostalCode, &t.IsActive, &t.SubscriptionTier,
		&t.SubscriptionStatus, &t.MaxPasses, &t.CreatedAt, &t.UpdatedAt,
	}
}

func (mapper) ID(t *Tenant) uuid.UUID { return t.ID }

func (mapper) SetCreated(t *Tenant, id uuid.UUID, now time.Time) {
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (mapper) SetUpdated(t *Tenant, now time.Time) { t.UpdatedAt = now }

// Tenants delete physically. is_active is an administrative toggle,
// not a delete marker; the API wires no tenant delete route.
func (mapper) DeletePolicy() repo.DeletePolicy { return repo.DeletePhysical }
