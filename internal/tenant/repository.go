package tenant

import (
	"context"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// Repository provides operations on the tenants table, composed over
// the generic record repository.
type Repository struct {
	records *repo.Repository[Tenant]
}

// NewRepository creates a tenant Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[Tenant](mapper{})}
}

// Create inserts a new tenant. Returns repo.ErrConflict when the slug
// is already taken.
func (r *Repository) Create(ctx context.Context, sess *store.Session, t *Tenant) error {
	return r.records.Create(ctx, sess, t)
}

// GetByID retrieves a tenant by id.
func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*Tenant, error) {
	return r.records.GetByID(ctx, sess, id)
}

// GetBySlug retrieves a tenant by its unique slug.
func (r *Repository) GetBySlug(ctx context.Context, sess *store.Session, slug string) (*Tenant, error) {
	return r.records.GetOne(ctx, sess, repo.Cond{Column: "slug", Value: slug})
}

// List lists all tenants in insertion order.
func (r *Repository) List(ctx context.Context, sess *store.Session) ([]Tenant, error) {
	return r.records.GetAll(ctx, sess)
}

// Update persists a modified tenant. Returns repo.ErrConflict when a
// slug change collides with another tenant.
func (r *Repository) Update(ctx context.Context, sess *store.Session, t *Tenant) error {
	return r.records.Update(ctx, sess, t)
}
