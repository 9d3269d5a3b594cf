package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type SettingsStore interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

type settingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) SettingsStore {
	return &settingsStore{db: db}
}

// Load reads the single settings row. A missing row yields defaults with an
// empty credential set, which the webhook handler treats as insecure mode.
func (r *settingsStore) Load(ctx context.Context) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT enabled, api_key, callback_secret, settlement_currency, description, status_map
		FROM confirmo_settings WHERE id = 1
	`)

	var s Settings
	var statusMapJSON []byte
	err := row.Scan(&s.Enabled, &s.APIKey, &s.CallbackSecret, &s.SettlementCurrency, &s.Description, &statusMapJSON)
	if err == sql.ErrNoRows {
		return &Settings{StatusMap: DefaultStatusMap()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if len(statusMapJSON) > 0 {
		if err := json.Unmarshal(statusMapJSON, &s.StatusMap); err != nil {
			return nil, fmt.Errorf("failed to decode status map: %w", err)
		}
	}
	if len(s.StatusMap) == 0 {
		s.StatusMap = DefaultStatusMap()
	}

	return &s, nil
}

func (r *settingsStore) Save(ctx context.Context, s *Settings) error {
	statusMapJSON, err := json.Marshal(s.StatusMap)
	if err != nil {
		return fmt.Errorf("failed to encode status map: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO confirmo_settings (id, enabled, api_key, callback_secret, settlement_currency, description, status_map, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id)
		DO UPDATE SET enabled = $1, api_key = $2, callback_secret = $3, settlement_currency = $4, description = $5, status_map = $6, updated_at = now()
	`, s.Enabled, s.APIKey, s.CallbackSecret, s.SettlementCurrency, s.Description, statusMapJSON)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
