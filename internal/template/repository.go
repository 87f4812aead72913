package template

import (
	"context"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// Repository provides operations on the templates table, composed over
// the generic record repository.
type Repository struct {
	records *repo.Repository[Template]
}

// NewRepository creates a template Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[Template](mapper{})}
}

func (r *Repository) Create(ctx context.Context, sess *store.Session, t *Template) error {
	return r.records.Create(ctx, sess, t)
}

// GetByID retrieves a template by id. Archived templates remain
// reachable here.
func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*Template, error) {
	return r.records.GetByID(ctx, sess, id)
}

// ListByTenant lists non-archived templates for a tenant, paginated.
func (r *Repository) ListByTenant(ctx context.Context, sess *store.Session, tenantID uuid.UUID, skip, limit int) ([]Template, error) {
	return r.records.Filter(ctx, sess, skip, limit, repo.Cond{Column: "tenant_id", Value: tenantID})
}

func (r *Repository) Update(ctx context.Context, sess *store.Session, t *Template) error {
	return r.records.Update(ctx, sess, t)
}

// Delete archives the template; the row stays reachable by id.
func (r *Repository) Delete(ctx context.Context, sess *store.Session, t *Template) error {
	return r.records.Delete(ctx, sess, t)
}
