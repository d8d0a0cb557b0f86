// internal/model/outbound_message.go
package model

import "time"

// Outbound message lifecycle. Sent and failed are terminal; a retry is a
// new OutboundMessage, never a mutation of a finished one.
const (
	OutboundStatusPending = "pending"
	OutboundStatusSent    = "sent"
	OutboundStatusFailed  = "failed"
)

// OutboundMessage records one dispatch attempt through the transport.
type OutboundMessage struct {
	ID             int64      `db:"id" json:"id"`
	Phone          string     `db:"phone" json:"phone"`
	Content        string     `db:"content" json:"content"`
	Status         string     `db:"status" json:"status"` // pending, sent, failed
	TransportMsgID *string    `db:"transport_message_id" json:"transport_message_id,omitempty"`
	RawResponse    string     `db:"raw_response" json:"raw_response,omitempty"`
	DeliveryStatus string     `db:"delivery_status" json:"delivery_status,omitempty"` // delivered, read
	DeliveredAt    *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CustomerID     *int64     `db:"customer_id" json:"customer_id,omitempty"`
	ServiceID      *int64     `db:"service_id" json:"service_id,omitempty"`
	TemplateID     *int64     `db:"template_id" json:"template_id,omitempty"`
	FollowUpID     *int64     `db:"followup_id" json:"followup_id,omitempty"`
	Automated      bool       `db:"automated" json:"automated"`
	Trigger        string     `db:"trigger_source" json:"trigger_source,omitempty"`
	LastError      string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
