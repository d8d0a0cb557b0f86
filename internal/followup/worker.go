package followup

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/dispatch"
	"github.com/bengkelhub/wa-bridge/internal/model"
	"github.com/bengkelhub/wa-bridge/internal/queue"
	"github.com/bengkelhub/wa-bridge/internal/repository"
)

// DefaultMaxRetries bounds dispatch attempts per queue entry.
const DefaultMaxRetries = 3

// Sender is the dispatch surface the worker needs.
type Sender interface {
	Send(ctx context.Context, phone, content string, ref dispatch.SendRef) dispatch.SendResult
}

// Worker consumes follow-up queue entries and dispatches them.
type Worker struct {
	Entries    repository.FollowUpRepositoryInterface
	Customers  repository.CustomerRepositoryInterface
	Templates  repository.TemplateRepositoryInterface
	Sender     Sender
	Log        *zap.Logger
	MaxRetries int
}

// Process handles one queue entry. Returning an error asks the queue for a
// redelivery; returning nil acknowledges the job. At-least-once delivery
// is absorbed by the pending-status check.
func (w *Worker) Process(ctx context.Context, entryID int64) error {
	maxRetries := w.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	entry, err := w.Entries.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		w.Log.Warn("follow-up entry not found, dropping job", zap.Int64("entry_id", entryID))
		return nil
	}
	if entry.Status != model.FollowUpStatusPending {
		w.Log.Debug("follow-up entry already processed",
			zap.Int64("entry_id", entryID),
			zap.String("status", entry.Status),
		)
		return nil
	}

	customer, err := w.Customers.GetByID(entry.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		w.Log.Warn("follow-up customer no longer exists, marking failed",
			zap.Int64("entry_id", entryID),
			zap.Int64("customer_id", entry.CustomerID),
		)
		return w.Entries.MarkFailed(entry.ID, "customer record not found")
	}

	res := w.Sender.Send(ctx, customer.Phone, entry.Message, dispatch.SendRef{
		CustomerID: &entry.CustomerID,
		ServiceID:  entry.ServiceID,
		TemplateID: &entry.TemplateID,
		FollowUpID: &entry.ID,
		Automated:  true,
		Trigger:    entry.Trigger,
	})
	if res.Success {
		if err := w.Entries.MarkSent(entry.ID); err != nil {
			w.Log.Error("sent but failed to update entry", zap.Int64("entry_id", entry.ID), zap.Error(err))
		}
		if err := w.Templates.IncrementUsage(entry.TemplateID); err != nil {
			w.Log.Warn("failed to bump template usage", zap.Int64("template_id", entry.TemplateID), zap.Error(err))
		}
		w.Log.Info("follow-up dispatched",
			zap.Int64("entry_id", entry.ID),
			zap.String("transport_message_id", res.MessageID),
		)
		return nil
	}

	retries, err := w.Entries.BumpRetry(entry.ID)
	if err != nil {
		return err
	}
	if retries >= maxRetries {
		w.Log.Warn("follow-up exhausted retries, marking failed",
			zap.Int64("entry_id", entry.ID),
			zap.Int("retries", retries),
			zap.String("error", res.Error),
		)
		return w.Entries.MarkFailed(entry.ID, res.Error)
	}
	return fmt.Errorf("follow-up dispatch failed (attempt %d/%d): %s", retries, maxRetries, res.Error)
}

// StartDispatchSubscriber wires the worker onto the queue. Payloads arrive
// as queue.Job from the in-memory queue and as raw JSON bytes from AMQP.
func StartDispatchSubscriber(q queue.Queue, w *Worker, log *zap.Logger) error {
	return q.Subscribe(queue.TopicFollowUpDispatch, func(payload any) error {
		var job queue.Job
		switch v := payload.(type) {
		case queue.Job:
			job = v
		case []byte:
			if err := json.Unmarshal(v, &job); err != nil {
				log.Warn("invalid follow-up job payload, dropping", zap.Error(err))
				return nil // no retry for garbage
			}
		default:
			log.Warn("unexpected follow-up job payload type, dropping")
			return nil
		}
		if job.FollowUpEntryID == 0 {
			log.Warn("follow-up job without entry id, dropping")
			return nil
		}
		return w.Process(context.Background(), job.FollowUpEntryID)
	})
}
