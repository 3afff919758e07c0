package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// Repository provides PostgreSQL backed persistence for report snapshots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSnapshots returns snapshots visible under scope, newest build first.
func (r *Repository) ListSnapshots(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Snapshot, int, error) {
	where, args := scope.SQL("owner_id", 1)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM report_snapshots WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_id, campaign_id, period, impressions, clicks, spend_cents, built_at
		FROM report_snapshots
		WHERE %s
		ORDER BY built_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: list: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.CampaignID, &s.Period, &s.Impressions, &s.Clicks, &s.SpendCents, &s.BuiltAt); err != nil {
			return nil, 0, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, total, rows.Err()
}

// GetSnapshot fetches a snapshot by id.
func (r *Repository) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, campaign_id, period, impressions, clicks, spend_cents, built_at
		FROM report_snapshots WHERE id = $1`, id).
		Scan(&s.ID, &s.OwnerID, &s.CampaignID, &s.Period, &s.Impressions, &s.Clicks, &s.SpendCents, &s.BuiltAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("reports: get %d: %w", id, err)
	}
	return &s, nil
}

// Summarize aggregates the snapshots visible under scope.
func (r *Repository) Summarize(ctx context.Context, scope authz.Predicate) (*Summary, error) {
	where, args := scope.SQL("owner_id", 1)
	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT campaign_id),
		       COALESCE(SUM(impressions), 0),
		       COALESCE(SUM(clicks), 0),
		       COALESCE(SUM(spend_cents), 0)
		FROM report_snapshots
		WHERE %s`, where)

	var s Summary
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.Campaigns, &s.Impressions, &s.Clicks, &s.SpendCents); err != nil {
		return nil, fmt.Errorf("reports: summarize: %w", err)
	}
	if s.Impressions > 0 {
		s.CTR = float64(s.Clicks) / float64(s.Impressions)
	}
	return &s, nil
}

// CampaignOwner resolves the owner of a campaign for rebuild authorization.
func (r *Repository) CampaignOwner(ctx context.Context, campaignID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM campaigns WHERE id = $1`, campaignID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, fmt.Errorf("reports: campaign owner %d: %w", campaignID, err)
	}
	return ownerID, nil
}

// UpsertSnapshot writes one snapshot row, replacing any previous build for the
// same campaign and period. The worker calls this.
func (r *Repository) UpsertSnapshot(ctx context.Context, s Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO report_snapshots (owner_id, campaign_id, period, impressions, clicks, spend_cents, built_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (campaign_id, period)
		DO UPDATE SET impressions = EXCLUDED.impressions,
		              clicks = EXCLUDED.clicks,
		              spend_cents = EXCLUDED.spend_cents,
		              built_at = NOW()`,
		s.OwnerID, s.CampaignID, s.Period, s.Impressions, s.Clicks, s.SpendCents)
	if err != nil {
		return fmt.Errorf("reports: upsert snapshot campaign=%d period=%s: %w", s.CampaignID, s.Period, err)
	}
	return nil
}
