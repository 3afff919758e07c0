package campaigns

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCampaigns returns campaigns visible under scope, newest first.
// The scope predicate only narrows the row set; ordering and pagination are
// unaffected by it.
func (r *Repository) ListCampaigns(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Campaign, int, error) {
	where, args := scope.SQL("owner_id", 1)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM campaigns WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("campaigns: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_id, brand_id, name, status, budget_cents, created_at, updated_at
		FROM campaigns
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("campaigns: list: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.BrandID, &c.Name, &c.Status, &c.BudgetCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

// GetCampaign fetches a campaign by id.
func (r *Repository) GetCampaign(ctx context.Context, id int64) (*Campaign, error) {
	var c Campaign
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, brand_id, name, status, budget_cents, created_at, updated_at
		FROM campaigns WHERE id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.BrandID, &c.Name, &c.Status, &c.BudgetCents, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("campaigns: get %d: %w", id, err)
	}
	return &c, nil
}

// CreateCampaign inserts a new campaign.
func (r *Repository) CreateCampaign(ctx context.Context, c Campaign) (*Campaign, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (owner_id, brand_id, name, status, budget_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		c.OwnerID, c.BrandID, c.Name, c.Status, c.BudgetCents).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("campaigns: create: %w", err)
	}
	return &c, nil
}

// UpdateCampaign updates mutable fields. The owner column is never written.
func (r *Repository) UpdateCampaign(ctx context.Context, c Campaign) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET brand_id = $2, name = $3, status = $4, budget_cents = $5, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.BrandID, c.Name, c.Status, c.BudgetCents)
	if err != nil {
		return fmt.Errorf("campaigns: update %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteCampaign removes a campaign by id.
func (r *Repository) DeleteCampaign(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("campaigns: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
