package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// OrderRepository persists orders together with their items.
type OrderRepository interface {
	// Create stores the order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	UpdateFields(ctx context.Context, id string, patch domain.OrderPatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *string
}

const orderColumns = `id, user_id, status, shipping_address, created_at, updated_at`

type orderRepository struct {
	pool PgxPool
}

// NewOrderRepository returns a Postgres-backed implementation.
func NewOrderRepository(pool PgxPool) OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO orders (id, user_id, status, shipping_address)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		order.ID,
		order.UserID,
		string(order.Status),
		order.ShippingAddress,
	).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return mapPgWriteError(err)
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
			order.ID, item.ProductID, item.Quantity,
		); err != nil {
			return mapPgWriteError(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanPgOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += " WHERE user_id=$1"
	}
	query += " ORDER BY created_at, id"

	orders, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := r.items(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		order, err := scanPgOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func (r *orderRepository) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderRepository) UpdateFields(ctx context.Context, id string, patch domain.OrderPatch) (int64, error) {
	assignments := orderAssignments(patch)
	if len(assignments) == 0 {
		return 0, nil
	}
	set, args := setClause(assignments, dollar)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE orders SET %s, updated_at=NOW() WHERE id=$%d`, set, len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgWriteError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanPgOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func orderAssignments(patch domain.OrderPatch) []assignment {
	var out []assignment
	if patch.Status != nil {
		out = append(out, assignment{"status", string(*patch.Status)})
	}
	if patch.ShippingAddress != nil {
		out = append(out, assignment{"shipping_address", *patch.ShippingAddress})
	}
	return out
}
