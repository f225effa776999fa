package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	UpdateFields(ctx context.Context, id string, patch domain.ProductPatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category *string
	Limit    int
	Offset   int
}

func (f ProductFilter) window() (int, int) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

const productColumns = `id, name, description, category, price_cents, stock, created_at, updated_at`

type productRepository struct {
	pool PgxPool
}

// NewProductRepository returns a Postgres-backed implementation.
func NewProductRepository(pool PgxPool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (id, name, description, category, price_cents, stock)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		product.PriceCents,
		product.Stock,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	return mapPgWriteError(err)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return scanPgProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *productRepository) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return scanPgProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE name=$1`, name))
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" WHERE category=$%d", len(args))
	}
	limit, offset := filter.window()
	query += fmt.Sprintf(" ORDER BY name LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		product, err := scanPgProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

func (r *productRepository) UpdateFields(ctx context.Context, id string, patch domain.ProductPatch) (int64, error) {
	assignments := productAssignments(patch)
	if len(assignments) == 0 {
		return 0, nil
	}
	set, args := setClause(assignments, dollar)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s, updated_at=NOW() WHERE id=$%d`, set, len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgWriteError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *productRepository) Delete(ctx context.Context, id string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanPgProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.PriceCents,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func productAssignments(patch domain.ProductPatch) []assignment {
	var out []assignment
	if patch.Name != nil {
		out = append(out, assignment{"name", *patch.Name})
	}
	if patch.Description != nil {
		out = append(out, assignment{"description", *patch.Description})
	}
	if patch.Category != nil {
		out = append(out, assignment{"category", *patch.Category})
	}
	if patch.PriceCents != nil {
		out = append(out, assignment{"price_cents", *patch.PriceCents})
	}
	if patch.Stock != nil {
		out = append(out, assignment{"stock", *patch.Stock})
	}
	return out
}
