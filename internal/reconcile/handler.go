package reconcile

import (
	"errors"
	"io"
	"net/http"

	"confirmo-gateway/internal/config"
	"confirmo-gateway/internal/logger"
	"confirmo-gateway/internal/order"

	"go.uber.org/zap"
)

// SignatureHeader carries the provider's keyed hash of the raw body.
const SignatureHeader = "BP-Signature"

type Handler struct {
	engine   *Engine
	settings config.SettingsStore
}

func NewHandler(engine *Engine, settings config.SettingsStore) *Handler {
	return &Handler{engine: engine, settings: settings}
}

// Notification handles POST /confirmo/webhook. Only a fully applied
// transition acknowledges with 200; every other branch returns a non-200 so
// the provider's delivery system may redeliver.
func (h *Handler) Notification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	settings, err := h.settings.Load(r.Context())
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to load gateway settings", zap.Error(err))
		http.Error(w, "configuration unavailable", http.StatusInternalServerError)
		return
	}

	err = h.engine.Process(r.Context(), settings, body, r.Header.Get(SignatureHeader))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	case errors.Is(err, ErrEmptyBody):
		http.Error(w, "no data", http.StatusBadRequest)
	case errors.Is(err, ErrBadSignature):
		http.Error(w, "invalid signature", http.StatusForbidden)
	case errors.Is(err, ErrMalformedPayload):
		http.Error(w, "invalid data", http.StatusBadRequest)
	case errors.Is(err, order.ErrNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, ErrCannotVerify):
		http.Error(w, "error fetching invoice status", http.StatusConflict)
	case errors.Is(err, ErrStatusUpdate):
		http.Error(w, "failed to update order", http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
