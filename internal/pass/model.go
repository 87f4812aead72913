package pass

import (
	"time"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
)

// Pass represents a row in the passes table: an individual wallet pass
// issued to a customer from a template.
type Pass struct {
	ID                  uuid.UUID
	SerialNumber        string
	PassTypeID          string
	AuthenticationToken string
	TenantID            uuid.UUID
	TemplateID          uuid.UUID
	CustomerID          uuid.UUID
	CampaignID          *uuid.UUID
	PassData            []byte // jsonb, customized fields from the template
	IsVoided            bool
	IsRedeemed          bool
	RedeemedAt          *time.Time
	ExpiresAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OwnerTenant reports the tenant owning this record, for authorization.
func (p *Pass) OwnerTenant() *uuid.UUID {
	return &p.TenantID
}

// Update lists the mutable fields of a pass. Nil fields are left
// unchanged.
type Update struct {
	PassData   []byte
	CampaignID *uuid.UUID
	ExpiresAt  *time.Time
}

// Apply assigns the non-nil fields onto p.
func (up Update) Apply(p *Pass) {
	if up.PassData != nil {
		p.PassData = up.PassData
	}
	if up.CampaignID != nil {
		p.CampaignID = up.CampaignID
	}
	if up.ExpiresAt != nil {
		p.ExpiresAt = up.ExpiresAt
	}
}

// mapper maps Pass onto the passes table. Passes are deleted logically:
// the row stays, flagged voided.
type mapper struct{}

func (mapper) Table() string { return "passes" }

func (mapper) Columns() []string {
	return []string{
		"id", "serial_number", "pass_type_id", "authentication_token",
		"tenant_id", "template_id", "customer_id", "campaign_id",
		"pass_data", "is_voided", "is_redeemed", "redeemed_at",
		"expires_at", "created_at", "updated_at",
	}
}

func (mapper) Values(p *Pass) []any {
	return []any{
		p.ID, p.SerialNumber, p.PassTypeID, p.AuthenticationToken,
		p.TenantID, p.TemplateID, p.CustomerID, p.CampaignID,
		p.PassData, p.IsVoided, p.IsRedeemed, p.RedeemedAt,
		p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	}
}

func (mapper) Fields(p *Pass) []any {
	return []any{
		&p.ID, &p.SerialNumber, &p.PassTypeID, &p.AuthenticationToken,
		&p.TenantID, &p.TemplateID, &p.CustomerID, &p.CampaignID,
		&p.PassData, &p.IsVoided, &p.IsRedeemed, &p.RedeemedAt,
		&p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	}
}

func (mapper) ID(p *Pass) uuid.UUID { return p.ID }

func (mapper) SetCreated(p *Pass, id uuid.UUID, now time.Time) {
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
}

func (mapper) SetUpdated(p *Pass, now time.Time) { p.UpdatedAt = now }

func (mapper) DeletePolicy() repo.DeletePolicy { return repo.DeleteLogicalFlag }

func (mapper) DeleteAssigns() []repo.Assign {
	return []repo.Assign{{Column: "is_voided", Value: true}}
}

func (mapper) DeletedMark() repo.Assign {
	return repo.Assign{Column: "is_voided", Value: true}
}
