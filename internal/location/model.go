package location

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// Location represents a row in the locations table: a physical place
// used by geo-targeted campaigns.
type Location struct {
	ID          uuid.UUID
	Name        string
	Address     *string
	City        *string
	Country     *string
	PostalCode  *string
	Latitude    float64
	Longitude   float64
	Radius      float64 // meters
	TenantID    uuid.UUID
	BeaconUUID  *string
	BeaconMajor *int
	BeaconMinor *int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
func (l *Location) OwnerTenant() *uuid.UUID {
	return &l.TenantID
}

// Update lists the mutable fields of a location. Nil fields are left
// unchanged.
type Update struct {
	Name        *string
	Address     *string
	City        *string
	Country     *string
	PostalCode  *string
	Latitude    *float64
	Longitude   *float64
	Radius      *float64
	BeaconUUID  *string
	BeaconMajor *int
	BeaconMinor *int
	IsActive    *bool
}

// Apply assigns the non-nil fields onto l.
func (up Update) Apply(l *Location) {
	if up.Name != nil {
		l.Name = *up.Name
	}
	if up.Address != nil {
		l.Address = up.Address
	}
	if up.City != nil {
		l.City = up.City
	}
	if up.Country != nil {
		l.Country = up.Country
	}
	if up.PostalCode != nil {
		l.PostalCode = up.PostalCode
	}
	if up.Latitude != nil {
		l.Latitude = *up.Latitude
	}
	if up.Longitude != nil {
		l.Longitude = *up.Longitude
	}
	if up.Radius != nil {
		l.Radius = *up.Radius
	}
	if up.BeaconUUID != nil {
		l.BeaconUUID = up.BeaconUUID
	}
	if up.BeaconMajor != nil {
		l.BeaconMajor = up.BeaconMajor
	}
	if up.BeaconMinor != nil {
		l.BeaconMinor = up.BeaconMinor
	}
	if up.IsActive != nil {
		l.IsActive = *up.IsActive
	}
}

// mapper maps Location onto the locations table. Locations are deleted
// physically; the campaigns FK (RESTRICT) blocks deletion while in use.
type mapper struct{}

func (mapper) Table() string { return "locations" }

func (mapper) Columns() []string {
	return []string{
		"id", "name", "address", "city", "country", "postal_code",
		"latitude", "longitude", "radius", "tenant_id",
		"beacon_uuid", "beacon_major", "beacon_minor", "is_active",
		"created_at", "updated_at",
	}
}

func (mapper) Values(l *Location) []any {
	return []any{
		l.ID, l.Name, l.Address, l.City, l.Country, l.PostalCode,
		l.Latitude, l.Longitude, l.Radius, l.TenantID,
		l.BeaconUUID, l.BeaconMajor, l.BeaconMinor, l.IsActive,
		l.CreatedAt, l.UpdatedAt,
	}
}

func (mapper) Fields(l *Location) []any {
	return []any{
		&l.ID, &l.Name, &l.Address, &l.City, &l.Country, &l.PostalCode,
		&l.Latitude, &l.Longitude, &l.Radius, &l.TenantID,
		&l.BeaconUUID, &l.BeaconMajor, &l.BeaconMinor, &l.IsActive,
		&l.CreatedAt, &l.UpdatedAt,
	}
}

func (mapper) ID(l *Location) uuid.UUID { return l.ID }

func (mapper) SetCreated(l *Location, id uuid.UUID, now time.Time) {
	l.ID = id
	l.CreatedAt = now
	l.UpdatedAt = now
}

func (mapper) SetUpdated(l *Location, now time.Time) { l.UpdatedAt = now }

func (mapper) DeletePolicy() repo.DeletePolicy { return repo.DeletePhysical }
