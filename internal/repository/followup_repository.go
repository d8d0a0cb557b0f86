package repository

import (
	"database/sql"
	"time"

	"github.com/bengkelhub/wa-bridge/internal/model"
)

// FollowUpRepositoryInterface defines the follow-up queue store.
type FollowUpRepositoryInterface interface {
	Create(entry *model.FollowUpQueueEntry) error
	GetByID(id int64) (*model.FollowUpQueueEntry, error)
	HasActiveWithin(customerID int64, trigger string, since time.Time) (bool, error)
	MarkSent(id int64) error
	MarkFailed(id int64, lastError string) error
	BumpRetry(id int64) (int, error)
}

type FollowUpRepository struct {
	DB *sql.DB
}

// Create inserts a new queue entry in pending state and fills in its ID.
func (r *FollowUpRepository) Create(entry *model.FollowUpQueueEntry) error {
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = model.FollowUpStatusPending
	}
	if entry.ScheduledAt.IsZero() {
		entry.ScheduledAt = now
	}
	query := `
        INSERT INTO followup_queue
        (customer_id, service_id, template_id, trigger_event, message, scheduled_at,
         status, retry_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		entry.CustomerID, entry.ServiceID, entry.TemplateID, entry.Trigger,
		entry.Message, entry.ScheduledAt, entry.Status, entry.RetryCount,
		entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID)
}

// GetByID fetches a queue entry, nil when not found.
func (r *FollowUpRepository) GetByID(id int64) (*model.FollowUpQueueEntry, error) {
	query := `
        SELECT id, customer_id, service_id, template_id, trigger_event, message,
               scheduled_at, status, retry_count, last_retry_at, last_error,
               created_at, updated_at
        FROM followup_queue
        WHERE id = $1
    `
	var e model.FollowUpQueueEntry
	err := r.DB.QueryRow(query, id).Scan(
		&e.ID, &e.CustomerID, &e.ServiceID, &e.TemplateID, &e.Trigger, &e.Message,
		&e.ScheduledAt, &e.Status, &e.RetryCount, &e.LastRetryAt, &e.LastError,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// HasActiveWithin reports whether a pending or sent entry exists for the
// (customer, trigger) pair since the given time. This is the cooldown
// guard: cancelled and failed entries do not count.
func (r *FollowUpRepository) HasActiveWithin(customerID int64, trigger string, since time.Time) (bool, error) {
	query := `
        SELECT COUNT(*)
        FROM followup_queue
        WHERE customer_id = $1 AND trigger_event = $2
          AND status IN ('pending', 'sent')
          AND created_at > $3
    `
	var count int
	if err := r.DB.QueryRow(query, customerID, trigger, since).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FollowUpRepository) MarkSent(id int64) error {
	query := `UPDATE followup_queue SET status='sent', last_error='', updated_at=NOW() WHERE id=$1 AND status='pending'`
	_, err := r.DB.Exec(query, id)
	return err
}

func (r *FollowUpRepository) MarkFailed(id int64, lastError string) error {
	query := `UPDATE followup_queue SET status='failed', last_error=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`
	_, err := r.DB.Exec(query, id, lastError)
	return err
}

// BumpRetry increments the retry counter and returns the new count.
func (r *FollowUpRepository) BumpRetry(id int64) (int, error) {
	query := `UPDATE followup_queue SET retry_count = retry_count + 1, last_retry_at = NOW(), updated_at = NOW() WHERE id = $1 RETURNING retry_count`
	var count int
	if err := r.DB.QueryRow(query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ FollowUpRepositoryInterface = (*FollowUpRepository)(nil)
