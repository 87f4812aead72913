package customer

import (
	"context"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// Repository provides operations on the customers table, composed over
// the generic record repository.
type Repository struct {
	records *repo.Repository[Customer]
}

// NewRepository creates a customer Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[Customer](mapper{})}
}

// Create inserts a new customer. Returns repo.ErrConflict when the
// email is already used within the tenant.
func (r *Repository) Create(ctx context.Context, sess *store.Session, c *Customer) error {
	return r.records.Create(ctx, sess, c)
}

func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*Customer, error) {
	return r.records.GetByID(ctx, sess, id)
}

// GetByEmail retrieves a customer by email within a tenant.
func (r *Repository) GetByEmail(ctx context.Context, sess *store.Session, tenantID uuid.UUID, email string) (*Customer, error) {
	return r.records.GetOne(ctx, sess,
		repo.Cond{Column: "tenant_id", Value: tenantID},
		repo.Cond{Column: "email", Value: email},
	)
}

// ListByTenant lists customers for a tenant, paginated.
func (r *Repository) ListByTenant(ctx context.Context, sess *store.Session, tenantID uuid.UUID, skip, limit int) ([]Customer, error) {
	return r.records.Filter(ctx, sess, skip, limit, repo.Cond{Column: "tenant_id", Value: tenantID})
}

func (r *Repository) Update(ctx context.Context, sess *store.Session, c *Customer) error {
	return r.records.Update(ctx, sess, c)
}

// Delete removes the customer row.
func (r *Repository) Delete(ctx context.Context, sess *store.Session, c *Customer) error {
	return r.records.Delete(ctx, sess, c)
}
