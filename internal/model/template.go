// internal/model/template.go
package model

import "time"

// Follow-up trigger events.
const (
	TriggerServiceCompletion   = "service_completion"
	TriggerBookingConfirmation = "booking_confirmation"
	TriggerPaymentReminder     = "payment_reminder"
	TriggerCustom              = "custom"
)

// FollowUpTemplate is a message template with {variable} placeholders.
// Read-mostly; usage counters are bumped on each successful dispatch.
type FollowUpTemplate struct {
	ID              int64      `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Trigger         string     `db:"trigger_event" json:"trigger_event"`
	Body            string     `db:"body" json:"body"`
	Active          bool       `db:"active" json:"active"`
	WhatsAppEnabled bool       `db:"whatsapp_enabled" json:"whatsapp_enabled"`
	AutoSend        bool       `db:"auto_send" json:"auto_send"`
	DelayMinutes    int        `db:"delay_minutes" json:"delay_minutes"`
	UsageCount      int        `db:"usage_count" json:"usage_count"`
	LastUsedAt      *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
