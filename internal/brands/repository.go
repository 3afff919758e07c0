package brands

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

// ListBrands returns brands visible under scope, newest first.
func (r *Repository) ListBrands(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Brand, int, error) {
	where, args := scope.SQL("owner_id", 1)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM brands WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("brands: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_id, name, website, created_at, updated_at
		FROM brands
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("brands: list: %w", err)
	}
	defer rows.Close()

	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Website, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		brands = append(brands, b)
	}
	return brands, total, rows.Err()
}

// GetBrand fetches a brand by id.
func (r *Repository) GetBrand(ctx context.Context, id int64) (*Brand, error) {
	var b Brand
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, website, created_at, updated_at
		FROM brands WHERE id = $1`, id).
		Scan(&b.ID, &b.OwnerID, &b.Name, &b.Website, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("brands: get %d: %w", id, err)
	}
	return &b, nil
}

// CreateBrand inserts a new brand.
func (r *Repository) CreateBrand(ctx context.Context, b Brand) (*Brand, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO brands (owner_id, name, website, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		b.OwnerID, b.Name, b.Website).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("brands: create: %w", err)
	}
	return &b, nil
}

// UpdateBrand updates mutable fields. The owner column is never written.
func (r *Repository) UpdateBrand(ctx context.Context, b Brand) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE brands
		SET name = $2, website = $3, updated_at = NOW()
		WHERE id = $1`,
		b.ID, b.Name, b.Website)
	if err != nil {
		return fmt.Errorf("brands: update %d: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteBrand removes a brand by id.
func (r *Repository) DeleteBrand(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("brands: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
