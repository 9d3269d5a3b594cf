package confirmo

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Status is the provider-side invoice lifecycle. The provider advances it
// strictly forward: prepared -> active -> confirming -> paid, with expired
// and error as terminal branches out of active/confirming.
type Status string

const (
	StatusPrepared   Status = "prepared"
	StatusActive     Status = "active"
	StatusConfirming Status = "confirming"
	StatusPaid       Status = "paid"
	StatusExpired    Status = "expired"
	StatusError      Status = "error"
)

type InvoiceRequest struct {
	// Settlement is omitted for in-kind settlement (no conversion).
	Settlement      *Settlement   `json:"settlement,omitempty"`
	Product         Product       `json:"product"`
	Invoice         InvoiceAmount `json:"invoice"`
	NotificationURL string        `json:"notificationUrl"`
	NotifyURL       string        `json:"notifyUrl"`
	ReturnURL       string        `json:"returnUrl"`
	Reference       string        `json:"reference"`
	CustomerEmail   string        `json:"customerEmail,omitempty"`
	Customer        *Customer     `json:"customer,omitempty"`
}

type Settlement struct {
	Currency string `json:"currency"`
}

type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InvoiceAmount struct {
	CurrencyFrom string          `json:"currencyFrom"`
	Amount       decimal.Decimal `json:"amount"`
}

type Customer struct {
	Name    string   `json:"name,omitempty"`
	Company string   `json:"company,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Invoice is the provider's record of one payment request. Immutable from the
// local side except for Status, which only the provider advances.
type Invoice struct {
	ID                 string `json:"id"`
	URL                string `json:"url"`
	Status             Status `json:"status"`
	Reference          string `json:"reference"`
	SettlementCurrency string `json:"settlementCurrency,omitempty"`

	// Raw keeps the undecoded response body for the audit log.
	Raw json.RawMessage `json:"-"`
}
