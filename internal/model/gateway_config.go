// internal/model/gateway_config.go
package model

import (
	"strings"
	"time"
)

// ConnectionSnapshot is the last-known state of the transport connection,
// stored as a JSON blob on the gateway configuration. Both the session
// manager (polling) and the webhook receiver (connection events) write it;
// last writer wins since both describe the same external truth.
type ConnectionSnapshot struct {
	Connected   bool      `json:"connected"`
	Status      string    `json:"status"`
	Devices     []string  `json:"devices,omitempty"`
	LastCheckAt time.Time `json:"last_check_at"`
}

// GatewayConfig is the single active WhatsApp gateway configuration.
// At most one row is active at a time; no active row disables the
// whole messaging subsystem.
type GatewayConfig struct {
	ID              int64              `db:"id" json:"id"`
	BaseURL         string             `db:"base_url" json:"base_url"`
	Username        string             `db:"username" json:"username,omitempty"`
	Password        string             `db:"password" json:"-"`
	WebhookSecret   string             `db:"webhook_secret" json:"-"`
	WebhookURL      string             `db:"webhook_url" json:"webhook_url,omitempty"`
	Active          bool               `db:"active" json:"active"`
	ConnStatus      ConnectionSnapshot `db:"connection_status" json:"connection_status"`
	LastConnectedAt *time.Time         `db:"last_connected_at" json:"last_connected_at,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// Endpoint joins the configured base URL with an API path.
func (c *GatewayConfig) Endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// BasicAuth returns the configured credentials, if any.
func (c *GatewayConfig) BasicAuth() (user, pass string, ok bool) {
	if c.Username == "" {
		return "", "", false
	}
	return c.Username, c.Password, true
}
