package pass

import (
	"context"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// Repository provides operations on the passes table, composed over the
// generic record repository.
type Repository struct {
	records *repo.Repository[Pass]
}

// NewRepository creates a pass Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[Pass](mapper{})}
}

// Create inserts a new pass. Returns repo.ErrConflict when the serial
// number is already taken.
func (r *Repository) Create(ctx context.Context, sess *store.Session, p *Pass) error {
	return r.records.Create(ctx, sess, p)
}

// GetByID retrieves a pass by id. Voided passes remain reachable here.
func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*Pass, error) {
	return r.records.GetByID(ctx, sess, id)
}

// GetBySerial retrieves a pass by its unique serial number.
func (r *Repository) GetBySerial(ctx context.Context, sess *store.Session, serial string) (*Pass, error) {
	return r.records.GetOne(ctx, sess, repo.Cond{Column: "serial_number", Value: serial})
}

// ListByTenant lists non-voided passes for a tenant, paginated.
// Optional customer and campaign ids narrow the result.
func (r *Repository) ListByTenant(ctx context.Context, sess *store.Session, tenantID uuid.UUID, customerID, campaignID *uuid.UUID, skip, limit int) ([]Pass, error) {
	conds := []repo.Cond{{Column: "tenant_id", Value: tenantID}}
	if customerID != nil {
		conds = append(conds, repo.Cond{Column: "customer_id", Value: *customerID})
	}
	if campaignID != nil {
		conds = append(conds, repo.Cond{Column: "campaign_id", Value: *campaignID})
	}
	return r.records.Filter(ctx, sess, skip, limit, conds...)
}

func (r *Repository) Update(ctx context.Context, sess *store.Session, p *Pass) error {
	return r.records.Update(ctx, sess, p)
}

// Delete voids the pass; the row stays reachable by id.
func (r *Repository) Delete(ctx context.Context, sess *store.Session, p *Pass) error {
	return r.records.Delete(ctx, sess, p)
}
