package template

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// Pass types supported by wallet providers.
const (
	TypeGeneric      = "generic"
	TypeCoupon       = "coupon"
	TypeEventTicket  = "eventTicket"
	TypeBoardingPass = "boardingPass"
	TypeStoreCard    = "storeCard"
)

// Template represents a row in the templates table: the reusable design
// individual passes are created from.
type Template struct {
	ID              uuid.UUID
	Name            string
	Description     *string
	PassType        string
	TenantID        uuid.UUID
	CreatedBy       uuid.UUID
	Design          []byte // jsonb field configuration
	BackgroundColor *string
	ForegroundColor *string
	LabelColor      *string
	LogoImage       *string
	IconImage       *string
	NFCEnabled      bool
	NFCMessage      *string
	IsActive        bool
	IsArchived      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
func (t *Template) OwnerTenant() *uuid.UUID {
	return &t.TenantID
}

// Update lists the mutable fields of a template. Nil fields are left
// unchanged.
type Update struct {
	Name            *string
	Description     *string
	PassType        *string
	Design          []byte
	BackgroundColor *string
	ForegroundColor *string
	LabelColor      *string
	LogoImage       *string
	IconImage       *string
	NFCEnabled      *bool
	NFCMessage      *string
	IsActive        *bool
}

// Apply assigns the non-nil fields onto t.
func (up Update) Apply(t *Template) {
	if up.Name != nil {
		t.Name = *up.Name
	}
	if up.Description != nil {
		t.Description = up.Description
	}
	if up.PassType != nil {
		t.PassType = *up.PassType
	}
	if up.Design != nil {
		t.Design = up.Design
	}
	if up.BackgroundColor != nil {
		t.BackgroundColor = up.BackgroundColor
	}
	if up.ForegroundColor != nil {
		t.ForegroundColor = up.ForegroundColor
	}
	if up.LabelColor != nil {
		t.LabelColor = up.LabelColor
	}
	if up.LogoImage != nil {
		t.LogoImage = up.LogoImage
	}
	if up.IconImage != nil {
		t.IconImage = up.IconImage
	}
	if up.NFCEnabled != nil {
		t.NFCEnabled = *up.NFCEnabled
	}
	if up.NFCMessage != nil {
		t.NFCMessage = up.NFCMessage
	}
	if up.IsActive != nil {
		t.IsActive = *up.IsActive
	}
}

// mapper maps Template onto the templates table. Templates are deleted
// logically: the row stays, flagged archived.
type mapper struct{}

func (mapper) Table() string { return "templates" }

func (mapper) Columns() []string {
	return []string{
		"id", "name", "description", "pass_type", "tenant_id",
		"created_by", "design", "background_color", "foreground_color",
		"label_color", "logo_image", "icon_image", "nfc_enabled",
		"nfc_message", "is_active", "is_archived",
		"created_at", "updated_at",
	}
}

func (mapper) Values(t *Template) []any {
	return []any{
		t.ID, t.Name, t.Description, t.PassType, t.TenantID,
		t.CreatedBy, t.Design, t.BackgroundColor, t.ForegroundColor,
		t.LabelColor, t.LogoImage, t.IconImage, t.NFCEnabled,
		t.NFCMessage, t.IsActive, t.IsArchived,
		t.CreatedAt, t.UpdatedAt,
	}
}

func (mapper) Fields(t *Template) []any {
	return []any{
		&t.ID, &t.Name, &t.Description, &t.PassType, &t.TenantID,
		&t.CreatedBy, &t.Design, &t.BackgroundColor, &t.ForegroundColor,
		&t.LabelColor, &t.LogoImage, &t.IconImage, &t.NFCEnabled,
		&t.NFCMessage, &t.IsActive, &t.IsArchived,
		&t.CreatedAt, &t.UpdatedAt,
	}
}

func (mapper) ID(t *Template) uuid.UUID { return t.ID }

func (mapper) SetCreated(t *Template, id uuid.UUID, now time.Time) {
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (mapper) SetUpdated(t *Template, now time.Time) { t.UpdatedAt = now }

func (mapper) DeletePolicy() repo.DeletePolicy { return repo.DeleteLogicalFlag }

func (mapper) DeleteAssigns() []repo.Assign {
	return []repo.Assign{
		{Column: "is_archived", Value: true},
		{Column: "is_active", Value: false},
	}
}

func (mapper) DeletedMark() repo.Assign {
	return repo.Assign{Column: "is_archived", Value: true}
}
