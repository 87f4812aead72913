package campaign

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// Campaign types.
const (
	TypeStandard = "standard"
	TypeGeo      = "geo"
	TypeEvent    = "event"
	TypePromo    = "promo"
)

// Campaign statuses.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Campaign represents a row in the campaigns table: a promotional
// activity that distributes or updates passes.
type Campaign struct {
	ID                  uuid.UUID
	Name                string
	Description         *string
	TenantID            uuid.UUID
	CreatedBy           uuid.UUID
	CampaignType        string
	TemplateID          *uuid.UUID
	Content             *string
	NotificationMessage *string
	IsGeoEnabled        bool
	GeoRadius           *float64 // meters
	GeoLatitude         *float64
	GeoLongitude        *float64
	LocationID          *uuid.UUID
	StartDate           *time.Time
	EndDate             *time.Time
	Status              string
	IsActive            bool
	SendCount           int
	OpenCount           int
	ConversionCount     int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
func (c *Campaign) OwnerTenant() *uuid.UUID {
	return &c.TenantID
}

// Executable reports whether the campaign may be executed from its
// current status.
func (c *Campaign) Executable() bool {
	switch c.Status {
	case StatusDraft, StatusScheduled, StatusActive:
		return true
	}
	return false
}

// Update lists the mutable fields of a campaign. Nil fields are left
// unchanged.
type Update struct {
	Name                *string
	Description         *string
	CampaignType        *string
	TemplateID          *uuid.UUID
	Content             *string
	NotificationMessage *string
	IsGeoEnabled        *bool
	GeoRadius           *float64
	GeoLatitude         *float64
	GeoLongitude        *float64
	LocationID          *uuid.UUID
	StartDate           *time.Time
	EndDate             *time.Time
	Status              *string
	IsActive            *bool
}

// Apply assigns the non-nil fields onto c.
func (up Update) Apply(c *Campaign) {
	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.Description != nil {
		c.Description = up.Description
	}
	if up.CampaignType != nil {
		c.CampaignType = *up.CampaignType
	}
	if up.TemplateID != nil {
		c.TemplateID = up.TemplateID
	}
	if up.Content != nil {
		c.Content = up.Content
	}
	if up.NotificationMessage != nil {
		c.NotificationMessage = up.NotificationMessage
	}
	if up.IsGeoEnabled != nil {
		c.IsGeoEnabled = *up.IsGeoEnabled
	}
	if up.GeoRadius != nil {
		c.GeoRadius = up.GeoRadius
	}
	if up.GeoLatitude != nil {
		c.GeoLatitude = up.GeoLatitude
	}
	if up.GeoLongitude != nil {
		c.GeoLongitude = up.GeoLongitude
	}
	if up.LocationID != nil {
		c.LocationID = up.LocationID
	}
	if up.StartDate != nil {
		c.StartDate = up.StartDate
	}
	if up.EndDate != nil {
		c.EndDate = up.EndDate
	}
	if up.Status != nil {
		c.Status = *up.Status
	}
	if up.IsActive != nil {
		c.IsActive = *up.IsActive
	}
}

// mapper maps Campaign onto the campaigns table. Campaigns are deleted
// logically: the row stays with status moved to cancelled.
type mapper struct{}

func (mapper) Table() string { return "campaigns" }

func (mapper) Columns() []string {
	return []string{
		"id", "name", "description", "tenant_id", "created_by",
		"campaign_type", "template_id", "content", "notification_message",
		"is_geo_enabled", "geo_radius", "geo_latitude", "geo_longitude",
		"location_id", "start_date", "end_date", "status", "is_active",
		"send_count", "open_count", "conversion_count",
		"created_at", "updated_at",
	}
}

func (mapper) Values(c *Campaign) []any {
	return []any{
		c.ID, c.Name, c.Description, c.TenantID, c.CreatedBy,
		c.CampaignType, c.TemplateID, c.Content, c.NotificationMessage,
		c.IsGeoEnabled, c.GeoRadius, c.GeoLatitude, c.GeoLongitude,
		c.LocationID, c.StartDate, c.EndDate, c.Status, c.IsActive,
		c.SendCount, c.OpenCount, c.ConversionCount,
		c.CreatedAt, c.UpdatedAt,
	}
}

func (mapper) Fields(c *Campaign) []any {
	return []any{
		&c.ID, &c.Name, &c.Description, &c.TenantID, &c.CreatedBy,
		&c.CampaignType, &c.TemplateID, &c.Content, &c.NotificationMessage,
		&c.IsGeoEnabled, &c.GeoRadius, &c.GeoLatitude, &c.GeoLongitude,
		&c.LocationID, &c.StartDate, &c.EndDate, &c.Status, &c.IsActive,
		&c.SendCount, &c.OpenCount, &c.ConversionCount,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

func (mapper) ID(c *Campaign) uuid.UUID { return c.ID }

func (mapper) SetCreated(c *Campaign, id uuid.UUID, now time.Time) {
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
}

func (mapper) SetUpdated(c *Campaign, now time.Time) { c.UpdatedAt = now }

func (mapper) DeletePolicy() repo.DeletePolicy { return repo.DeleteLogicalStatus }

func (mapper) DeleteAssigns() []repo.Assign {
	return []repo.Assign{
		{Column: "status", Value: StatusCancelled},
		{Column: "is_active", Value: false},
	}
}

func (mapper) DeletedMark() repo.Assign {
	return repo.Assign{Column: "status", Value: StatusCancelled}
}
