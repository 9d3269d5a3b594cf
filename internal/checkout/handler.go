package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"confirmo-gateway/internal/order"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type payRequest struct {
	OrderID uint `json:"order_id"`
}

type payResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// Pay handles POST /checkout/pay from the storefront during checkout.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	url, err := h.svc.Pay(r.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, ErrGatewayDisabled):
			http.Error(w, ErrGatewayDisabled.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, ErrPaymentFailed.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payResponse{RedirectURL: url})
}

type customPayRequest struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// CustomPay handles POST /checkout/custom-pay: a pay-button invoice for an
// arbitrary currency and amount, unattached to any order.
func (h *Handler) CustomPay(w http.ResponseWriter, r *http.Request) {
	var req customPayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Currency == "" {
		http.Error(w, "currency is missing", http.StatusBadRequest)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		http.Error(w, "amount is missing", http.StatusBadRequest)
		return
	}

	url, err := h.svc.CustomPay(r.Context(), req.Currency, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			http.Error(w, ErrNotConfigured.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, ErrPaymentFailed.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payResponse{RedirectURL: url})
}
