package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/shop-service/internal/domain"
)

type sqliteCartRepository struct {
	db *sql.DB
}

// NewSQLiteCartRepository returns a SQLite-backed implementation.
func NewSQLiteCartRepository(db *sql.DB) CartRepository {
	return &sqliteCartRepository{db: db}
}

func (r *sqliteCartRepository) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	stamp := formatTime(time.Now().UTC())
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID, stamp, stamp,
	); err != nil {
		return nil, mapSQLiteWriteError(err)
	}
	return r.GetByUserID(ctx, userID)
}

func (r *sqliteCartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := scanSQLiteCart(r.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id=?`, userID))
	if err != nil {
		return nil, err
	}
	if cart.Items, err = r.items(ctx, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *sqliteCartRepository) List(ctx context.Context) ([]domain.Cart, error) {
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

func (r *sqliteCartRepository) carts(ctx context.Context) ([]domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cartColumns+` FROM carts ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Cart{}
	for rows.Next() {
		cart, err := scanSQLiteCart(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cart)
	}
	return result, rows.Err()
}

func (r *sqliteCartRepository) items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id, quantity, added_at FROM cart_items WHERE cart_id=? ORDER BY added_at, product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var (
			item    domain.CartItem
			addedAt string
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &addedAt); err != nil {
			return nil, err
		}
		item.AddedAt = parseTime(addedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *sqliteCartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int64) error {
	const query = `
        INSERT INTO cart_items (cart_id, product_id, quantity, added_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`
	stamp := formatTime(time.Now().UTC())
	if _, err := r.db.ExecContext(ctx, query, cartID, productID, quantity, stamp); err != nil {
		return mapSQLiteWriteError(err)
	}
	_, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at=? WHERE id=?`, stamp, cartID)
	return err
}

func (r *sqliteCartRepository) RemoveItem(ctx context.Context, cartID, productID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=? AND product_id=?`, cartID, productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSQLiteCart(row rowScanner) (*domain.Cart, error) {
	var (
		c                  domain.Cart
		createdAt, updated string
	)
	if err := row.Scan(&c.ID, &c.UserID, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}
