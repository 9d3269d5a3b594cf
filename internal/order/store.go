package order

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("order not found")

// Store is the full surface this system assumes of the hosting storefront.
// Everything else about the order model stays on the storefront's side.
type Store interface {
	// FindOrder returns ErrNotFound when no order matches the id.
	FindOrder(ctx context.Context, id uint) (*Order, error)

	// SetStatus transitions the order and records a human-readable note.
	SetStatus(ctx context.Context, o *Order, status Status, note string) error

	// FinalizePayment runs the storefront's payment-complete side effect
	// (stock/finance finalization). It must be idempotent: finalizing an
	// already-finalized order is a no-op.
	FinalizePayment(ctx context.Context, o *Order) error

	// SetRedirectURL stores the invoice redirect URL against the order,
	// replacing any URL from a prior checkout attempt.
	SetRedirectURL(ctx context.Context, o *Order, url string) error

	// ReduceStock releases reserved stock for the order's line items.
	ReduceStock(ctx context.Context, o *Order) error

	// EmptyCart clears the customer's cart after a successful checkout.
	EmptyCart(ctx context.Context, customerID uint) error
}
