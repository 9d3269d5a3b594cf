package admin

import (
	"encoding/json"
	"net/http"

	"confirmo-gateway/internal/auditlog"
	"confirmo-gateway/internal/config"
	"confirmo-gateway/internal/logger"

	"go.uber.org/zap"
)

// Handler is the operator surface: plumbing over the audit log and the
// settings store. All routes except Login sit behind the auth middleware.
type Handler struct {
	audit    auditlog.Repository
	settings config.SettingsStore
}

func NewHandler(audit auditlog.Repository, settings config.SettingsStore) *Handler {
	return &Handler{audit: audit, settings: settings}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if !CheckPassword(req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := GenerateToken()
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to issue token", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.List(r.Context())
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to list logs", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type logEntry struct {
		ID          int64  `json:"id"`
		Time        string `json:"time"`
		OrderID     *uint  `json:"order_id"`
		APIResponse string `json:"api_response"`
		Hook        string `json:"hook"`
		Version     string `json:"version"`
	}

	out := make([]logEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntry{
			ID:          e.ID,
			Time:        e.Time.Format("2006-01-02 15:04:05"),
			OrderID:     e.OrderID,
			APIResponse: e.APIResponse,
			Hook:        e.Hook,
			Version:     e.Version,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *Handler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=confirmo_debug_logs.csv")

	if err := h.audit.ExportCSV(r.Context(), w); err != nil {
		logger.FromCtx(r.Context()).Error("failed to export logs", zap.Error(err))
	}
}

func (h *Handler) PurgeLogs(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.audit.PurgeOlderThan(r.Context(), auditlog.RetentionPeriod)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to purge logs", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"deleted": deleted})
}

func (h *Handler) DeleteLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.audit.DeleteAll(r.Context()); err != nil {
		logger.FromCtx(r.Context()).Error("failed to delete logs", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsResponse struct {
	Enabled            bool              `json:"enabled"`
	APIKeySet          bool              `json:"api_key_set"`
	CallbackSecretSet  bool              `json:"callback_secret_set"`
	SettlementCurrency string            `json:"settlement_currency"`
	Description        string            `json:"description"`
	StatusMap          map[string]string `json:"status_map"`
}

// GetSettings reports configuration state. Credentials are never echoed back,
// only whether they are set.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to load settings", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	statusMap := make(map[string]string, len(s.StatusMap))
	for k, v := range s.StatusMap {
		statusMap[k] = string(v)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settingsResponse{
		Enabled:            s.Enabled,
		APIKeySet:          s.APIKey != "",
		CallbackSecretSet:  s.CallbackSecret != "",
		SettlementCurrency: s.SettlementCurrency,
		Description:        s.Description,
		StatusMap:          statusMap,
	})
}

type updateSettingsResponse struct {
	Errors []config.FieldError `json:"errors,omitempty"`
}

// UpdateSettings applies a partial update. Invalid fields keep their previous
// value and are reported individually; valid fields in the same submission
// still take effect.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update config.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	s, err := h.settings.Load(r.Context())
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to load settings", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	fieldErrs := s.Apply(update)

	if err := h.settings.Save(r.Context(), s); err != nil {
		logger.FromCtx(r.Context()).Error("failed to save settings", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(fieldErrs) > 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(updateSettingsResponse{Errors: fieldErrs})
}
