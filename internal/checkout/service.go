package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"confirmo-gateway/internal/auditlog"
	"confirmo-gateway/internal/config"
	"confirmo-gateway/internal/confirmo"
	"confirmo-gateway/internal/logger"
	"confirmo-gateway/internal/order"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrPaymentFailed is the buyer-visible failure: the invoice could not be
	// created and the checkout must not proceed.
	ErrPaymentFailed = errors.New("payment error: unable to create Confirmo invoice")

	// ErrGatewayDisabled means the operator has switched the gateway off;
	// no invoice may be created until it is enabled again.
	ErrGatewayDisabled = errors.New("payment error: Confirmo gateway is disabled")

	// ErrNotConfigured means no API key is stored yet.
	ErrNotConfigured = errors.New("payment error: Confirmo API key is missing")
)

const (
	hookProcessPayment = "process_payment"
	hookCreatePayment  = "create_payment"

	customPaymentReference = "custom-button-payment"
)

type Service interface {
	// Pay creates a Confirmo invoice for the order and returns the redirect
	// URL the buyer should be sent to.
	Pay(ctx context.Context, orderID uint) (string, error)

	// CustomPay creates a stand-alone invoice not tied to any order, settled
	// in the same currency the buyer pays in.
	CustomPay(ctx context.Context, currency string, amount decimal.Decimal) (string, error)
}

type service struct {
	orders    order.Store
	client    confirmo.Client
	settings  config.SettingsStore
	audit     auditlog.Repository
	notifyURL string
	returnURL string
}

func NewService(
	orders order.Store,
	client confirmo.Client,
	settings config.SettingsStore,
	audit auditlog.Repository,
	notifyURL string,
	returnURL string,
) Service {
	return &service{
		orders:    orders,
		client:    client,
		settings:  settings,
		audit:     audit,
		notifyURL: notifyURL,
		returnURL: returnURL,
	}
}

func (s *service) Pay(ctx context.Context, orderID uint) (string, error) {
	log := logger.FromCtx(ctx).With(zap.Uint("order_id", orderID))

	settings, err := s.settings.Load(ctx)
	if err != nil {
		log.Error("failed to load gateway settings", zap.Error(err))
		return "", ErrPaymentFailed
	}
	if !settings.Enabled {
		log.Warn("payment attempted while gateway is disabled")
		return "", ErrGatewayDisabled
	}

	o, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		log.Error("failed to load order", zap.Error(err))
		return "", fmt.Errorf("failed to load order %d: %w", orderID, err)
	}

	req := buildInvoiceRequest(o, settings, s.notifyURL, s.returnURL)

	inv, err := s.client.CreateInvoice(ctx, settings.APIKey, req)
	if err != nil {
		// The original order state is untouched on any creation failure.
		raw := err.Error()
		if inv != nil && len(inv.Raw) > 0 {
			raw = string(inv.Raw)
		}
		s.logAudit(ctx, &o.ID, raw, hookProcessPayment)
		log.Error("invoice creation failed", zap.Error(err))
		return "", ErrPaymentFailed
	}

	if err := s.orders.SetRedirectURL(ctx, o, inv.URL); err != nil {
		s.logAudit(ctx, &o.ID, "failed to persist redirect url: "+err.Error(), hookProcessPayment)
		return "", ErrPaymentFailed
	}

	if err := s.orders.SetStatus(ctx, o, order.StatusPending, "Awaiting Confirmo payment."); err != nil {
		s.logAudit(ctx, &o.ID, "failed to set pending status: "+err.Error(), hookProcessPayment)
		return "", ErrPaymentFailed
	}

	if err := s.orders.ReduceStock(ctx, o); err != nil {
		log.Warn("failed to reduce stock", zap.Error(err))
	}
	if err := s.orders.EmptyCart(ctx, o.CustomerID); err != nil {
		log.Warn("failed to empty cart", zap.Error(err))
	}

	s.logAudit(ctx, &o.ID, string(inv.Raw), hookProcessPayment)

	log.Info("order awaiting payment",
		zap.String("invoice_id", inv.ID),
		zap.String("redirect_url", inv.URL),
	)

	return inv.URL, nil
}

// CustomPay mirrors the operator's pay-button flow: an invoice for an
// arbitrary amount, settled in the currency it was charged in, logged
// without an order id.
func (s *service) CustomPay(ctx context.Context, currency string, amount decimal.Decimal) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("currency", currency),
		zap.String("amount", amount.String()),
	)

	settings, err := s.settings.Load(ctx)
	if err != nil {
		log.Error("failed to load gateway settings", zap.Error(err))
		return "", ErrPaymentFailed
	}
	if settings.APIKey == "" {
		return "", ErrNotConfigured
	}

	req := &confirmo.InvoiceRequest{
		Settlement: &confirmo.Settlement{Currency: currency},
		Product: confirmo.Product{
			Name:        "Custom Payment",
			Description: "Payment via Confirmo Button",
		},
		Invoice: confirmo.InvoiceAmount{
			CurrencyFrom: currency,
			Amount:       amount,
		},
		NotificationURL: s.notifyURL,
		NotifyURL:       s.notifyURL,
		ReturnURL:       s.returnURL,
		Reference:       customPaymentReference,
	}

	inv, err := s.client.CreateInvoice(ctx, settings.APIKey, req)
	if err != nil {
		raw := err.Error()
		if inv != nil && len(inv.Raw) > 0 {
			raw = string(inv.Raw)
		}
		s.logAudit(ctx, nil, raw, hookCreatePayment)
		log.Error("custom payment creation failed", zap.Error(err))
		return "", ErrPaymentFailed
	}

	s.logAudit(ctx, nil, string(inv.Raw), hookCreatePayment)

	log.Info("custom payment created",
		zap.String("invoice_id", inv.ID),
		zap.String("redirect_url", inv.URL),
	)

	return inv.URL, nil
}

func buildInvoiceRequest(o *order.Order, settings *config.Settings, notifyURL, returnURL string) *confirmo.InvoiceRequest {
	var names, descriptions []string
	for _, it := range o.Items {
		names = append(names, it.Name)
		descriptions = append(descriptions, fmt.Sprintf("%s (%d)", it.Name, it.Quantity))
	}

	req := &confirmo.InvoiceRequest{
		Product: confirmo.Product{
			Name:        strings.Join(names, " + "),
			Description: strings.Join(descriptions, " + "),
		},
		Invoice: confirmo.InvoiceAmount{
			CurrencyFrom: o.Currency,
			Amount:       o.Total,
		},
		NotificationURL: notifyURL,
		NotifyURL:       notifyURL,
		ReturnURL:       returnURL,
		Reference:       strconv.FormatUint(uint64(o.ID), 10),
		CustomerEmail:   o.Email,
		Customer: &confirmo.Customer{
			Name:    o.Billing.Name,
			Company: o.Billing.Company,
			Address: &confirmo.Address{
				Street:  o.Billing.Street,
				City:    o.Billing.City,
				Zip:     o.Billing.Zip,
				Country: o.Billing.Country,
			},
		},
	}

	// In-kind settlement: leave the settlement block out entirely.
	if settings.SettlementCurrency != config.SettlementInKind {
		req.Settlement = &confirmo.Settlement{Currency: settings.SettlementCurrency}
	}

	return req
}

func (s *service) logAudit(ctx context.Context, orderID *uint, response, hook string) {
	if err := s.audit.Insert(ctx, orderID, response, hook); err != nil {
		logger.FromCtx(ctx).Error("failed to write audit entry", zap.Error(err))
	}
}
