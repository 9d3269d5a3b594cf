package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusOnHold     Status = "on-hold"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusOnHold:     true,
	StatusProcessing: true,
	StatusCompleted:  true,
	StatusFailed:     true,
	StatusCancelled:  true,
}

func ValidStatus(s string) bool {
	return validStatuses[Status(s)]
}

// PaymentComplete reports whether reaching this status finalizes the payment,
// which requires the finalize side effect to fire before the transition.
func (s Status) PaymentComplete() bool {
	return s == StatusCompleted || s == StatusProcessing
}

// Order is the storefront's order as seen through this system's boundary.
// The gateway references orders, it never owns them.
type Order struct {
	ID          uint
	CustomerID  uint
	Email       string
	Currency    string
	Total       decimal.Decimal
	Status      Status
	RedirectURL string
	Billing     BillingProfile
	Items       []Item
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BillingProfile struct {
	Name    string
	Company string
	Street  string
	City    string
	Zip     string
	Country string
}

type Item struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Name      string
	Quantity  int
	Price     decimal.Decimal
}
