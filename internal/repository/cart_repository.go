package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// CartRepository persists one shopping cart per user.
type CartRepository interface {
	// Ensure returns the user's cart, creating an empty one when none exists.
	Ensure(ctx context.Context, userID string) (*domain.Cart, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	List(ctx context.Context) ([]domain.Cart, error)
	// AddItem adds quantity to the product's line, creating it when missing.
	AddItem(ctx context.Context, cartID, productID string, quantity int64) error
	RemoveItem(ctx context.Context, cartID, productID string) (int64, error)
}

const cartColumns = `id, user_id, created_at, updated_at`

type cartRepository struct {
	pool PgxPool
}

// NewCartRepository returns a Postgres-backed implementation.
func NewCartRepository(pool PgxPool) CartRepository {
	return &cartRepository{pool: pool}
}

func (r *cartRepository) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID,
	); err != nil {
		return nil, mapPgWriteError(err)
	}
	return r.GetByUserID(ctx, userID)
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := scanPgCart(r.pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id=$1`, userID))
	if err != nil {
		return nil, err
	}
	if cart.Items, err = r.items(ctx, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) List(ctx context.Context) ([]domain.Cart, error) {
	carts, err := r.carts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range carts {
		if carts[i].Items, err = r.items(ctx, carts[i].ID); err != nil {
			return nil, err
		}
	}
	return carts, nil
}

func (r *cartRepository) carts(ctx context.Context) ([]domain.Cart, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cartColumns+` FROM carts ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Cart{}
	for rows.Next() {
		cart, err := scanPgCart(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cart)
	}
	return result, rows.Err()
}

func (r *cartRepository) items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, added_at FROM cart_items WHERE cart_id=$1 ORDER BY added_at, product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *cartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int64) error {
	const query = `
        INSERT INTO cart_items (cart_id, product_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	if _, err := r.pool.Exec(ctx, query, cartID, productID, quantity); err != nil {
		return mapPgWriteError(err)
	}
	_, err := r.pool.Exec(ctx, `UPDATE carts SET updated_at=NOW() WHERE id=$1`, cartID)
	return err
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartID, productID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanPgCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
