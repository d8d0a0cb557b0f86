// internal/model/followup.go
package model

import "time"

// Follow-up queue entry lifecycle.
const (
	FollowUpStatusPending   = "pending"
	FollowUpStatusSent      = "sent"
	FollowUpStatusFailed    = "failed"
	FollowUpStatusCancelled = "cancelled"
)

// FollowUpQueueEntry is one scheduled follow-up message for a customer.
// Created by the scheduler, consumed by the dispatch worker.
type FollowUpQueueEntry struct {
	ID          int64      `db:"id" json:"id"`
	CustomerID  int64      `db:"customer_id" json:"customer_id"`
	ServiceID   *int64     `db:"service_id" json:"service_id,omitempty"`
	TemplateID  int64      `db:"template_id" json:"template_id"`
	Trigger     string     `db:"trigger_event" json:"trigger_event"`
	Message     string     `db:"message" json:"message"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status      string     `db:"status" json:"status"` // pending, sent, failed, cancelled
	RetryCount  int        `db:"retry_count" json:"retry_count"`
	LastRetryAt *time.Time `db:"last_retry_at" json:"last_retry_at,omitempty"`
	LastError   string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
