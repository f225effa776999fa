package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

type sqliteOrderRepository struct {
	db *sql.DB
}

// NewSQLiteOrderRepository returns a SQLite-backed implementation.
func NewSQLiteOrderRepository(db *sql.DB) OrderRepository {
	return &sqliteOrderRepository{db: db}
}

func (r *sqliteOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	stamp := formatTime(now)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, shipping_address, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, string(order.Status), order.ShippingAddress, stamp, stamp,
	); err != nil {
		return mapSQLiteWriteError(err)
	}
	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)`,
			order.ID, item.ProductID, item.Quantity,
		); err != nil {
			return mapSQLiteWriteError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	order.CreatedAt, order.UpdatedAt = now, now
	return nil
}

func (r *sqliteOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanSQLiteOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id))
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

func (r *sqliteOrderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += " WHERE user_id=?"
	}
	query += " ORDER BY created_at, id"

	// Rows are drained before items are loaded; the handle runs on a single connection.
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

func (r *sqliteOrderRepository) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		order, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func (r *sqliteOrderRepository) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id=? ORDER BY product_id`, orderID)
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

func (r *sqliteOrderRepository) UpdateFields(ctx context.Context, id string, patch domain.OrderPatch) (int64, error) {
	assignments := orderAssignments(patch)
	if len(assignments) == 0 {
		return 0, nil
	}
	assignments = append(assignments, assignment{"updated_at", formatTime(time.Now().UTC())})
	set, args := setClause(assignments, question)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE orders SET %s WHERE id=?`, set), args...)
	if err != nil {
		return 0, mapSQLiteWriteError(err)
	}
	return res.RowsAffected()
}

func (r *sqliteOrderRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSQLiteOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                  domain.Order
		status             string
		createdAt, updated string
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.ShippingAddress, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updated)
	return &o, nil
}
