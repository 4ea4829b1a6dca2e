package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medicart/internal/model"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderService struct {
	db *sql.DB
}

func NewOrderService(db *sql.DB) *OrderService {
	return &OrderService{db: db}
}

// Create persists the order and its items in one transaction. The order
// starts as Pending with confirmation still owed; the notifier picks it up
// from there, so a crash after commit cannot drop the confirmation.
func (s *OrderService) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.PreferredDate == "" {
		order.PreferredDate = time.Now().Format("2006-01-02")
	}
	if order.PreferredTime == "" {
		order.PreferredTime = "09:00"
	}
	applyItemDefaults(order.Items)
	applyTotalDefaults(order)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			customer_name, customer_mobile, customer_email, customer_age, customer_city,
			preferred_date, preferred_time,
			total_original, total_final, plan_coverage,
			status, confirmation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'Pending', 'pending')
		RETURNING id, status, confirmation, created_at, updated_at
	`,
		order.Customer.Name, order.Customer.Mobile, order.Customer.Email,
		order.Customer.Age, order.Customer.City,
		order.PreferredDate, order.PreferredTime,
		order.Totals.Original, order.Totals.Final, order.Totals.PlanCoverage,
	)
	if err := row.Scan(&order.ID, &order.Status, &order.Confirmation, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, test_id, test_name, lab_id, lab_name,
				quantity, price, discounted_price, pinned
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			order.ID, item.TestID, item.TestName, item.LabID, item.LabName,
			item.Quantity, item.Price, item.DiscountedPrice, item.Pinned,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return order, nil
}

func applyItemDefaults(items []model.OrderItem) {
	for i := range items {
		if items[i].Quantity <= 0 {
			items[i].Quantity = 1
		}
	}
}

func applyTotalDefaults(order *model.Order) {
	if order.Totals.Original == 0 && order.Totals.Final == 0 {
		for _, item := range order.Items {
			order.Totals.Original += item.Price * float64(item.Quantity)
			order.Totals.Final += item.DiscountedPrice * float64(item.Quantity)
		}
	}
}

// List returns orders newest first. A non-empty query filters by customer
// mobile or email, so customers who signed up with either can find theirs.
func (s *OrderService) List(ctx context.Context, query string) ([]model.Order, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseSelect := `
		SELECT id, customer_name, customer_mobile, customer_email, customer_age, customer_city,
		       preferred_date, preferred_time,
		       total_original, total_final, plan_coverage,
		       status, confirmation, created_at, updated_at
		FROM orders`

	query = strings.TrimSpace(query)
	if query == "" {
		rows, err = s.db.QueryContext(ctx, baseSelect+` ORDER BY created_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			baseSelect+` WHERE customer_mobile = $1 OR customer_email = $1 ORDER BY created_at DESC`,
			query,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetByID returns one order with its items, or ErrOrderNotFound.
func (s *OrderService) GetByID(ctx context.Context, id string) (*model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, customer_mobile, customer_email, customer_age, customer_city,
		       preferred_date, preferred_time,
		       total_original, total_final, plan_coverage,
		       status, confirmation, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// UpdateStatus sets an operator status; the caller validates it against the
// allowed set first.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrOrderNotFound
	}

	return s.GetByID(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Unconfirmed returns the oldest orders still owing a confirmation attempt.
func (s *OrderService) Unconfirmed(ctx context.Context, limit int) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, customer_mobile, customer_email, customer_age, customer_city,
		       preferred_date, preferred_time,
		       total_original, total_final, plan_coverage,
		       status, confirmation, created_at, updated_at
		FROM orders
		WHERE confirmation = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unconfirmed: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// SetConfirmation records the terminal outcome of a confirmation attempt.
func (s *OrderService) SetConfirmation(ctx context.Context, id, state string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE orders SET confirmation = $1 WHERE id = $2`,
		state, id,
	)
	if err != nil {
		return fmt.Errorf("set confirmation: %w", err)
	}
	return nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.Customer.Name, &o.Customer.Mobile, &o.Customer.Email,
			&o.Customer.Age, &o.Customer.City,
			&o.PreferredDate, &o.PreferredTime,
			&o.Totals.Original, &o.Totals.Final, &o.Totals.PlanCoverage,
			&o.Status, &o.Confirmation, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return orders, nil
}

func (s *OrderService) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, test_id, test_name, lab_id, lab_name,
		       quantity, price, discounted_price, pinned
		FROM order_items
		WHERE order_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    model.OrderItem
		)
		if err := rows.Scan(
			&orderID, &item.TestID, &item.TestName, &item.LabID, &item.LabName,
			&item.Quantity, &item.Price, &item.DiscountedPrice, &item.Pinned,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration failed: %w", err)
	}

	return nil
}
