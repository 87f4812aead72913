package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// Repository provides operations on the campaigns table, composed over
// the generic record repository, plus campaign⇄customer membership.
type Repository struct {
	records *repo.Repository[Campaign]
}

// NewRepository creates a campaign Repository.
func NewRepository() *Repository {
	return &Repository{records: repo.New[Campaign](mapper{})}
}

func (r *Repository) Create(ctx context.Context, sess *store.Session, c *Campaign) error {
	return r.records.Create(ctx, sess, c)
}

// GetByID retrieves a campaign by id. Cancelled campaigns remain
// reachable here.
func (r *Repository) GetByID(ctx context.Context, sess *store.Session, id uuid.UUID) (*Campaign, error) {
	return r.records.GetByID(ctx, sess, id)
}

// ListByTenant lists non-cancelled campaigns for a tenant, paginated.
// A non-empty status narrows the result further.
func (r *Repository) ListByTenant(ctx context.Context, sess *store.Session, tenantID uuid.UUID, status string, skip, limit int) ([]Campaign, error) {
	conds := []repo.Cond{{Column: "tenant_id", Value: tenantID}}
	if status != "" {
		conds = append(conds, repo.Cond{Column: "status", Value: status})
	}
	return r.records.Filter(ctx, sess, skip, limit, conds...)
}

func (r *Repository) Update(ctx context.Context, sess *store.Session, c *Campaign) error {
	return r.records.Update(ctx, sess, c)
}

// Delete cancels the campaign; the row stays reachable by id.
func (r *Repository) Delete(ctx context.Context, sess *store.Session, c *Campaign) error {
	return r.records.Delete(ctx, sess, c)
}

// AddCustomers enrolls customers into the campaign. Existing
// memberships are kept untouched.
func (r *Repository) AddCustomers(ctx context.Context, sess *store.Session, campaignID uuid.UUID, customerIDs []uuid.UUID) error {
	query := `
		INSERT INTO campaign_customers (campaign_id, customer_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, customerID := range customerIDs {
		if _, err := sess.ExecContext(ctx, query, campaignID, customerID); err != nil {
			return fmt.Errorf("enrolling customer in campaign: %w", err)
		}
	}
	return nil
}

// CustomerIDs lists the ids of customers enrolled in the campaign.
func (r *Repository) CustomerIDs(ctx context.Context, sess *store.Session, campaignID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT customer_id FROM campaign_customers
		WHERE campaign_id = $1
		ORDER BY customer_id`

	rows, err := sess.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("listing campaign customers: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning campaign customer row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campaign customer rows: %w", err)
	}
	return ids, nil
}
