package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockward/internal/core/apperror"
	"stockward/internal/core/id"
	"stockward/internal/domain/catalogs/product"
	"stockward/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetBySKU retrieves a product by its SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(productTable, sku)
		}
		return nil, err
	}
	return p, nil
}

// ResolveSKUs maps SKUs to product IDs. SKUs without a matching active
// product are absent from the result; the caller decides whether that
// is an error.
func (r *ProductRepo) ResolveSKUs(ctx context.Context, skus []string) (map[string]id.ID, error) {
	if len(skus) == 0 {
		return map[string]id.ID{}, nil
	}

	q := r.Builder().
		Select("sku", "id").
		From(productTable).
		Where(squirrel.Eq{"sku": skus}).
		Where(squirrel.Eq{"deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		SKU string `db:"sku"`
		ID  id.ID  `db:"id"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("resolve skus: %w", err)
	}

	resolved := make(map[string]id.ID, len(rows))
	for _, row := range rows {
		resolved[row.SKU] = row.ID
	}
	return resolved, nil
}
