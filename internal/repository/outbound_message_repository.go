package repository

import (
	"database/sql"
	"time"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

// OutboundMessageRepositoryInterface defines the outbound message store
// used by the dispatcher and the webhook receiver.
type OutboundMessageRepositoryInterface interface {
	Create(msg *model.OutboundMessage) error
	GetByID(id int64) (*model.OutboundMessage, error)
	MarkSent(id int64, transportMsgID, rawResponse string) error
	MarkFailed(id int64, lastError string) error
	UpdateDeliveryStatus(transportMsgID, status string, at time.Time) (bool, error)
}

type OutboundMessageRepository struct {
	DB *sql.DB
}

// Create inserts a new outbound message and fills in its ID. The row is
// written before the transport call so a crash mid-dispatch still leaves
// an auditable pending record.
func (r *OutboundMessageRepository) Create(msg *model.OutboundMessage) error {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Status == "" {
		msg.Status = model.OutboundStatusPending
	}
	query := `
        INSERT INTO outbound_messages
        (phone, content, status, customer_id, service_id, template_id, followup_id,
         automated, trigger_source, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		msg.Phone, msg.Content, msg.Status,
		msg.CustomerID, msg.ServiceID, msg.TemplateID, msg.FollowUpID,
		msg.Automated, msg.Trigger, msg.CreatedAt, msg.UpdatedAt,
	).Scan(&msg.ID)
}

// GetByID fetches an outbound message by its ID, nil when not found.
func (r *OutboundMessageRepository) GetByID(id int64) (*model.OutboundMessage, error) {
	query := `
        SELECT id, phone, content, status, transport_message_id, raw_response,
               delivery_status, delivered_at, customer_id, service_id, template_id,
               followup_id, automated, trigger_source, last_error, created_at, updated_at
        FROM outbound_messages
        WHERE id = $1
    `
	var msg model.OutboundMessage
	err := r.DB.QueryRow(query, id).Scan(
		&msg.ID, &msg.Phone, &msg.Content, &msg.Status,
		&msg.TransportMsgID, &msg.RawResponse,
		&msg.DeliveryStatus, &msg.DeliveredAt,
		&msg.CustomerID, &msg.ServiceID, &msg.TemplateID, &msg.FollowUpID,
		&msg.Automated, &msg.Trigger, &msg.LastError,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// MarkSent stamps the transport message id and raw response. The status
// guard keeps sent/failed terminal.
func (r *OutboundMessageRepository) MarkSent(id int64, transportMsgID, rawResponse string) error {
	query := `
        UPDATE outbound_messages
        SET status='sent', transport_message_id=$2, raw_response=$3, last_error='', updated_at=NOW()
        WHERE id=$1 AND status='pending'
    `
	_, err := r.DB.Exec(query, id, transportMsgID, rawResponse)
	return err
}

// MarkFailed records the error text for audit and manual resend.
func (r *OutboundMessageRepository) MarkFailed(id int64, lastError string) error {
	query := `
        UPDATE outbound_messages
        SET status='failed', last_error=$2, updated_at=NOW()
        WHERE id=$1 AND status='pending'
    `
	_, err := r.DB.Exec(query, id, lastError)
	return err
}

// UpdateDeliveryStatus applies a webhook delivery report to the matching
// message. Update-if-exists: an unknown transport id or a duplicate report
// affects zero rows and the caller just logs it.
func (r *OutboundMessageRepository) UpdateDeliveryStatus(transportMsgID, status string, at time.Time) (bool, error) {
	query := `
        UPDATE outbound_messages
        SET delivery_status=$2, delivered_at=$3, updated_at=NOW()
        WHERE transport_message_id=$1 AND delivery_status IS DISTINCT FROM $2
    `
	res, err := r.DB.Exec(query, transportMsgID, status, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
