package repository

import (
	"database/sql"
	"time"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

// InboundMessageRepositoryInterface defines the append-only inbound store.
type InboundMessageRepositoryInterface interface {
	CreateIfAbsent(msg *model.InboundMessage) (bool, error)
}

type InboundMessageRepository struct {
	DB *sql.DB
}

// CreateIfAbsent inserts the message unless a row with the same transport
// message id already exists. Returns whether a row was written. Messages
// without a transport id are always inserted.
func (r *InboundMessageRepository) CreateIfAbsent(msg *model.InboundMessage) (bool, error) {
	now := time.Now()
	msg.CreatedAt = now
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = now
	}
	query := `
        INSERT INTO inbound_messages
        (phone, type, content, caption, direction, transport_message_id, received_at, raw_payload, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (transport_message_id) DO NOTHING
    `
	res, err := r.DB.Exec(
		query,
		msg.Phone, msg.Type, msg.Content, msg.Caption, msg.Direction,
		msg.TransportMsgID, msg.ReceivedAt, msg.RawPayload, msg.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ InboundMessageRepositoryInterface = (*InboundMessageRepository)(nil)
