// internal/model/inbound_message.go
package model

import "time"

// InboundMessage is an append-only record of a message that arrived via
// webhook. The transport message id is the idempotency key: duplicate
// webhook deliveries must not create duplicate rows.
type InboundMessage struct {
	ID             int64     `db:"id" json:"id"`
	Phone          string    `db:"phone" json:"phone"`
	Type           string    `db:"type" json:"type"`
	Content        string    `db:"content" json:"content"`
	Caption        string    `db:"caption" json:"caption,omitempty"`
	Direction      string    `db:"direction" json:"direction"`
	TransportMsgID *string   `db:"transport_message_id" json:"transport_message_id,omitempty"`
	ReceivedAt     time.Time `db:"received_at" json:"received_at"`
	RawPayload     []byte    `db:"raw_payload" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
