package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// MenuRepository looks up catalog rows.
type MenuRepository interface {
	FindBySKUs(ctx context.Context, skus []string) (map[string]domain.MenuItem, error)
}

type menuRepository struct {
	pool     *pgxpool.Pool
	tenantID string
}

// NewMenuRepository instantiates repository.
func NewMenuRepository(pool *pgxpool.Pool, tenantID string) MenuRepository {
	return &menuRepository{pool: pool, tenantID: tenantID}
}

func (r *menuRepository) FindBySKUs(ctx context.Context, skus []string) (map[string]domain.MenuItem, error) {
	result := make(map[string]domain.MenuItem, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	const query = `SELECT sku, name, unit_price_cents FROM menu_items WHERE tenant_id=$1 AND sku = ANY($2)`
	rows, err := r.pool.Query(ctx, query, r.tenantID, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.SKU, &item.Name, &item.UnitPriceCents); err != nil {
			return nil, err
		}
		result[item.SKU] = item
	}
	return result, rows.Err()
}
