package order

import (
	"context"
	"database/sql"
	"fmt"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Store {
	return &repository{db: db}
}

func (r *repository) FindOrder(ctx context.Context, id uint) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, email, currency, total, status, confirmo_redirect_url,
		       billing_name, billing_company, billing_street, billing_city, billing_zip, billing_country,
		       paid_at, created_at, updated_at
		FROM orders WHERE id = $1
	`, id)

	var o Order
	var redirectURL sql.NullString
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.Email, &o.Currency, &o.Total, &o.Status, &redirectURL,
		&o.Billing.Name, &o.Billing.Company, &o.Billing.Street, &o.Billing.City, &o.Billing.Zip, &o.Billing.Country,
		&o.PaidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	o.RedirectURL = redirectURL.String

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *repository) loadItems(ctx context.Context, orderID uint) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) SetStatus(ctx context.Context, o *Order, status Status, note string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, status_note = $2, updated_at = now() WHERE id = $3
	`, status, note, o.ID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

// FinalizePayment stamps paid_at exactly once. The WHERE guard makes a second
// call hit zero rows, so duplicate webhook deliveries cannot finalize twice.
func (r *repository) FinalizePayment(ctx context.Context, o *Order) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET paid_at = now(), updated_at = now()
		WHERE id = $1 AND paid_at IS NULL
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize payment: %w", err)
	}
	return nil
}

func (r *repository) SetRedirectURL(ctx context.Context, o *Order, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET confirmo_redirect_url = $1, updated_at = now() WHERE id = $2
	`, url, o.ID)
	if err != nil {
		return fmt.Errorf("failed to set redirect url: %w", err)
	}
	o.RedirectURL = url
	return nil
}

func (r *repository) ReduceStock(ctx context.Context, o *Order) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products p SET stock = p.stock - oi.quantity
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to reduce stock: %w", err)
	}
	return nil
}

func (r *repository) EmptyCart(ctx context.Context, customerID uint) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE customer_id = $1
	`, customerID)
	if err != nil {
		return fmt.Errorf("failed to empty cart: %w", err)
	}
	return nil
}
