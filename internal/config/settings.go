package config

import (
	"fmt"

	"confirmo-gateway/internal/order"
)

// SettlementInKind is the sentinel for "no conversion": the invoice settles in
// whatever cryptocurrency the buyer paid with, so the settlement block is
// omitted from the API request entirely.
const SettlementInKind = ""

var allowedSettlementCurrencies = []string{
	"BTC",
	"CZK",
	"EUR",
	"GBP",
	"HUF",
	"PLN",
	"USD",
	"USDC",
	"USDT",
	SettlementInKind,
}

// StatusMapping maps a Confirmo invoice status (lower-cased) to a local order status.
type StatusMapping map[string]order.Status

// Settings is the gateway configuration record. It is loaded once per request
// and handed to the checkout and reconciliation components as a parameter;
// core logic never reads it from ambient state.
type Settings struct {
	Enabled            bool
	APIKey             string
	CallbackSecret     string
	SettlementCurrency string
	Description        string
	StatusMap          StatusMapping
}

// DefaultStatusMap mirrors the provider's documented lifecycle: everything
// before payment holds the order, paid completes it, terminal branches fail it.
func DefaultStatusMap() StatusMapping {
	return StatusMapping{
		"prepared":   order.StatusOnHold,
		"active":     order.StatusOnHold,
		"confirming": order.StatusOnHold,
		"paid":       order.StatusCompleted,
		"expired":    order.StatusFailed,
		"error":      order.StatusFailed,
	}
}

// FieldError reports a validation failure for a single settings field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SettingsUpdate carries a partial update; nil fields are left untouched.
type SettingsUpdate struct {
	Enabled            *bool             `json:"enabled,omitempty"`
	APIKey             *string           `json:"api_key,omitempty"`
	CallbackSecret     *string           `json:"callback_secret,omitempty"`
	SettlementCurrency *string           `json:"settlement_currency,omitempty"`
	Description        *string           `json:"description,omitempty"`
	StatusMap          map[string]string `json:"status_map,omitempty"`
}

// Apply validates the update field by field. An invalid field keeps its
// previous value and contributes one FieldError; valid fields still apply.
func (s *Settings) Apply(u SettingsUpdate) []FieldError {
	var errs []FieldError

	if u.Enabled != nil {
		s.Enabled = *u.Enabled
	}

	if u.APIKey != nil {
		if len(*u.APIKey) == 64 && isAlnum(*u.APIKey) {
			s.APIKey = *u.APIKey
		} else {
			errs = append(errs, FieldError{"api_key", "API Key must be exactly 64 alphanumeric characters"})
		}
	}

	if u.CallbackSecret != nil {
		if len(*u.CallbackSecret) == 16 && isAlnum(*u.CallbackSecret) {
			s.CallbackSecret = *u.CallbackSecret
		} else {
			errs = append(errs, FieldError{"callback_secret", "Callback Password must be 16 alphanumeric characters"})
		}
	}

	if u.SettlementCurrency != nil {
		if allowedSettlement(*u.SettlementCurrency) {
			s.SettlementCurrency = *u.SettlementCurrency
		} else {
			errs = append(errs, FieldError{"settlement_currency", "Invalid settlement currency selected"})
		}
	}

	if u.Description != nil {
		s.Description = *u.Description
	}

	if u.StatusMap != nil {
		mapped, err := parseStatusMap(u.StatusMap)
		if err != nil {
			errs = append(errs, FieldError{"status_map", err.Error()})
		} else {
			s.StatusMap = mapped
		}
	}

	return errs
}

func parseStatusMap(raw map[string]string) (StatusMapping, error) {
	m := make(StatusMapping, len(raw))
	for confirmoStatus, local := range raw {
		if !order.ValidStatus(local) {
			return nil, fmt.Errorf("unknown order status %q for Confirmo status %q", local, confirmoStatus)
		}
		m[confirmoStatus] = order.Status(local)
	}
	return m, nil
}

func allowedSettlement(currency string) bool {
	for _, c := range allowedSettlementCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
