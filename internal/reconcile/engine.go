package reconcile

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"confirmo-gateway/internal/auditlog"
	"confirmo-gateway/internal/config"
	"confirmo-gateway/internal/confirmo"
	"confirmo-gateway/internal/logger"
	"confirmo-gateway/internal/order"

	"go.uber.org/zap"
)

// Rejection reasons, mapped to HTTP codes by the webhook handler.
var (
	ErrEmptyBody        = errors.New("empty notification body")
	ErrBadSignature     = errors.New("invalid signature")
	ErrMalformedPayload = errors.New("malformed notification payload")
	ErrCannotVerify     = errors.New("cannot verify invoice status")
	ErrStatusUpdate     = errors.New("order status update failed")
)

// Audit hook names, one per decision branch.
const (
	hookNotification       = "notification"
	hookSignature          = "signature_validation"
	hookStatusVerification = "status_verification"
	hookStatusUpdate       = "order_status_update"
	hookStatusUpdateFailed = "order_status_update_failed"
)

// Engine reconciles an inbound webhook against the provider's API. The
// webhook is only a trigger to re-check: the transition applied always comes
// from a fresh authoritative fetch, never from the claimed status.
type Engine struct {
	orders order.Store
	client confirmo.Client
	audit  auditlog.Repository
}

func NewEngine(orders order.Store, client confirmo.Client, audit auditlog.Repository) *Engine {
	return &Engine{orders: orders, client: client, audit: audit}
}

// Process runs the full reconciliation for one notification delivery.
// A nil return means the transition (or a deliberate idempotent no-op) was
// applied and the caller may acknowledge with 200. Every branch, success or
// failure, appends at least one audit entry.
func (e *Engine) Process(ctx context.Context, settings *config.Settings, body []byte, signature string) error {
	log := logger.FromCtx(ctx)

	if len(body) == 0 {
		e.logAudit(ctx, nil, "empty notification body received", hookNotification)
		return ErrEmptyBody
	}

	// Authenticate before parsing anything.
	if settings.CallbackSecret != "" {
		if !validSignature(body, settings.CallbackSecret, signature) {
			log.Warn("signature validation failed")
			e.logAudit(ctx, nil, "signature validation failed", hookSignature)
			return ErrBadSignature
		}
	} else {
		// Insecure mode: no callback password configured. Proceed, but make
		// the condition visible to operators.
		log.Warn("no callback password set, proceeding without validation")
		e.logAudit(ctx, nil, "no callback password configured, notification accepted without signature validation", hookSignature)
	}

	payload, err := parsePayload(body)
	if err != nil {
		log.Warn("invalid notification payload", zap.Error(err))
		e.logAudit(ctx, nil, "invalid notification payload: "+err.Error(), hookNotification)
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	log = log.With(
		zap.String("reference", payload.Reference),
		zap.String("invoice_id", payload.ID),
		zap.String("claimed_status", payload.Status),
	)

	o, err := e.resolveOrder(ctx, payload.Reference)
	if err != nil {
		log.Warn("failed to resolve order", zap.Error(err))
		e.logAudit(ctx, nil, "failed to retrieve order with reference: "+payload.Reference, hookNotification)
		return err
	}
	ctx = logger.WithOrder(ctx, o.ID)

	// Authoritative re-check. The claimed status in the payload is never
	// trusted; a disagreement is not an error, the fetched status wins.
	inv, err := e.client.GetInvoice(ctx, settings.APIKey, payload.ID)
	if err != nil {
		log.Warn("failed to verify invoice status", zap.Error(err))
		e.logAudit(ctx, &o.ID, "error fetching invoice status for invoice: "+payload.ID, hookStatusVerification)
		return fmt.Errorf("%w: %v", ErrCannotVerify, err)
	}

	verified := strings.ToLower(string(inv.Status))
	log = log.With(zap.String("verified_status", verified))

	mapped, ok := settings.StatusMap[verified]
	if !ok {
		log.Warn("unknown Confirmo status")
		e.logAudit(ctx, &o.ID, "received unknown status: "+verified, hookStatusUpdate)
		return fmt.Errorf("%w: unknown status %q", ErrCannotVerify, verified)
	}

	if mapped.PaymentComplete() {
		if err := e.orders.FinalizePayment(ctx, o); err != nil {
			log.Error("failed to finalize payment", zap.Error(err))
			e.logAudit(ctx, &o.ID, "failed to finalize payment: "+err.Error(), hookStatusUpdateFailed)
			return fmt.Errorf("%w: %v", ErrStatusUpdate, err)
		}
	}

	if err := e.orders.SetStatus(ctx, o, mapped, statusNote(verified)); err != nil {
		log.Error("failed to update order status", zap.Error(err))
		e.logAudit(ctx, &o.ID, "failed to update order status: "+err.Error(), hookStatusUpdateFailed)
		return fmt.Errorf("%w: %v", ErrStatusUpdate, err)
	}

	e.logAudit(ctx, &o.ID, fmt.Sprintf("order status updated to: %s based on Confirmo status: %s", mapped, verified), hookStatusUpdate)
	log.Info("order status reconciled", zap.String("order_status", string(mapped)))

	return nil
}

func (e *Engine) resolveOrder(ctx context.Context, reference string) (*order.Order, error) {
	id, err := strconv.ParseUint(reference, 10, 64)
	if err != nil {
		return nil, order.ErrNotFound
	}
	return e.orders.FindOrder(ctx, uint(id))
}

// validSignature checks the BP-Signature header: a hex sha256 digest of the
// raw body concatenated with the shared secret.
func validSignature(body []byte, secret, signature string) bool {
	h := sha256.New()
	h.Write(body)
	h.Write([]byte(secret))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// statusNote is the human-readable note attached to the order transition.
func statusNote(confirmoStatus string) string {
	switch confirmoStatus {
	case "prepared":
		return "Payment instructions created, awaiting payment."
	case "active":
		return "Client selects crypto payment method, awaiting payment."
	case "confirming":
		return "Payment received, awaiting confirmations."
	case "paid":
		return "Payment completed."
	case "expired":
		return "Payment expired or insufficient amount."
	case "error":
		return "Payment confirmation failed."
	default:
		return "Confirmo status: " + confirmoStatus
	}
}

func (e *Engine) logAudit(ctx context.Context, orderID *uint, message, hook string) {
	if err := e.audit.Insert(ctx, orderID, message, hook); err != nil {
		logger.FromCtx(ctx).Error("failed to write audit entry", zap.Error(err))
	}
}
