package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

// GatewayConfigRepositoryInterface defines config access used by the
// dispatcher, session manager and webhook receiver.
type GatewayConfigRepositoryInterface interface {
	GetActive() (*model.GatewayConfig, error)
	UpdateConnectionStatus(id int64, snap model.ConnectionSnapshot) error
}

type GatewayConfigRepository struct {
	DB *sql.DB
}

// GetActive returns the single active gateway configuration, or nil when
// none exists. Nil means the messaging subsystem is disabled.
func (r *GatewayConfigRepository) GetActive() (*model.GatewayConfig, error) {
	query := `
        SELECT id, base_url, username, password, webhook_secret, webhook_url,
               active, connection_status, last_connected_at, created_at, updated_at
        FROM gateway_configs
        WHERE active = TRUE
        ORDER BY id
        LIMIT 1
    `
	var (
		cfg  model.GatewayConfig
		snap []byte
	)
	err := r.DB.QueryRow(query).Scan(
		&cfg.ID, &cfg.BaseURL, &cfg.Username, &cfg.Password,
		&cfg.WebhookSecret, &cfg.WebhookURL, &cfg.Active,
		&snap, &cfg.LastConnectedAt, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(snap) > 0 {
		_ = json.Unmarshal(snap, &cfg.ConnStatus)
	}
	return &cfg, nil
}

// UpdateConnectionStatus merges the snapshot into the stored JSON blob and
// stamps last_connected_at when the transport reports connected.
func (r *GatewayConfigRepository) UpdateConnectionStatus(id int64, snap model.ConnectionSnapshot) error {
	if snap.LastCheckAt.IsZero() {
		snap.LastCheckAt = time.Now()
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	query := `
        UPDATE gateway_configs
        SET connection_status = COALESCE(connection_status, '{}'::jsonb) || $1::jsonb,
            last_connected_at = CASE WHEN $2 THEN NOW() ELSE last_connected_at END,
            updated_at = NOW()
        WHERE id = $3
    `
	_, err = r.DB.Exec(query, blob, snap.Connected, id)
	return err
}

var _ GatewayConfigRepositoryInterface = (*GatewayConfigRepository)(nil)
