package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

type sqliteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository returns a SQLite-backed implementation.
func NewSQLiteProductRepository(db *sql.DB) ProductRepository {
	return &sqliteProductRepository{db: db}
}

func (r *sqliteProductRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (id, name, description, category, price_cents, stock, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	stamp := formatTime(now)
	if _, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		product.PriceCents,
		product.Stock,
		stamp,
		stamp,
	); err != nil {
		return mapSQLiteWriteError(err)
	}
	product.CreatedAt, product.UpdatedAt = now, now
	return nil
}

func (r *sqliteProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return scanSQLiteProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id=?`, id))
}

func (r *sqliteProductRepository) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return scanSQLiteProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE name=?`, name))
}

func (r *sqliteProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += " WHERE category=?"
	}
	limit, offset := filter.window()
	query += fmt.Sprintf(" ORDER BY name LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		product, err := scanSQLiteProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

func (r *sqliteProductRepository) UpdateFields(ctx context.Context, id string, patch domain.ProductPatch) (int64, error) {
	assignments := productAssignments(patch)
	if len(assignments) == 0 {
		return 0, nil
	}
	assignments = append(assignments, assignment{"updated_at", formatTime(time.Now().UTC())})
	set, args := setClause(assignments, question)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE products SET %s WHERE id=?`, set), args...)
	if err != nil {
		return 0, mapSQLiteWriteError(err)
	}
	return res.RowsAffected()
}

func (r *sqliteProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSQLiteProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                  domain.Product
		createdAt, updated string
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.PriceCents,
		&p.Stock,
		&createdAt,
		&updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}
