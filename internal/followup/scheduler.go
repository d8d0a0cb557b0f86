// Package followup schedules and dispatches templated follow-up messages
// to workshop customers.
package followup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/config"
	"github.com/bengkelhub/wa-bridge/internal/model"
	"github.com/bengkelhub/wa-bridge/internal/queue"
	"github.com/bengkelhub/wa-bridge/internal/repository"
)

// Follow-up policy windows.
const (
	// CooldownWindow is the minimum gap between follow-ups to the same
	// customer for the same trigger.
	CooldownWindow = 30 * 24 * time.Hour
	// ServiceStaleness is how long after the last service a customer
	// becomes eligible for a follow-up.
	ServiceStaleness = 90 * 24 * time.Hour
	// DefaultBatchLimit caps one batch run when no limit is given.
	DefaultBatchLimit = 10
	// DefaultPace spaces enqueues so a batch cannot burst the transport.
	DefaultPace = 100 * time.Millisecond
)

// BatchResult summarizes one scheduler run. In dry-run mode Created counts
// the entries that would have been written.
type BatchResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Scheduler selects eligible customers, renders templates and enqueues
// dispatch jobs.
type Scheduler struct {
	Customers repository.CustomerRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Entries   repository.FollowUpRepositoryInterface
	Queue     queue.Queue
	Workshop  config.WorkshopConfig
	Log       *zap.Logger
	Pace      time.Duration
}

// RunBatch processes up to limit eligible customers for the
// service-completion trigger. A failure on one customer is logged and
// counted as skipped; it never aborts the rest of the batch.
func (s *Scheduler) RunBatch(ctx context.Context, limit int, dryRun bool) (BatchResult, error) {
	var res BatchResult
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	pace := s.Pace
	if pace <= 0 {
		pace = DefaultPace
	}

	batchID := uuid.NewString()
	log := s.Log.With(zap.String("batch_id", batchID), zap.Bool("dry_run", dryRun))

	trigger := model.TriggerServiceCompletion
	now := time.Now()

	tmpl, err := s.Templates.GetDefaultActive(trigger)
	if err != nil {
		return res, err
	}
	if tmpl == nil {
		log.Warn("no active whatsapp template for trigger, nothing to do",
			zap.String("trigger", trigger))
		return res, nil
	}

	customers, err := s.Customers.ListEligibleForFollowUp(
		trigger,
		now.Add(-ServiceStaleness),
		now.Add(-CooldownWindow),
		limit,
	)
	if err != nil {
		return res, err
	}
	log.Info("follow-up batch selected", zap.Int("eligible", len(customers)))

	for _, c := range customers {
		if ctx.Err() != nil {
			log.Warn("batch interrupted", zap.Error(ctx.Err()))
			break
		}
		if s.processCustomer(ctx, log, c, tmpl, now, dryRun) {
			res.Created++
		} else {
			res.Skipped++
		}
		time.Sleep(pace)
	}

	log.Info("follow-up batch finished",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// processCustomer handles one customer and reports whether an entry was
// created (or, in dry-run, would have been).
func (s *Scheduler) processCustomer(ctx context.Context, log *zap.Logger, c model.Customer, tmpl *model.FollowUpTemplate, now time.Time, dryRun bool) bool {
	clog := log.With(zap.Int64("customer_id", c.ID))

	// Selection already excludes customers in cooldown, but the window is
	// re-checked here so racing batch runs cannot double-schedule.
	active, err := s.Entries.HasActiveWithin(c.ID, tmpl.Trigger, now.Add(-CooldownWindow))
	if err != nil {
		clog.Warn("cooldown check failed, skipping", zap.Error(err))
		return false
	}
	if active {
		clog.Debug("customer already has a follow-up inside the cooldown window")
		return false
	}

	svc, err := s.Customers.GetLatestService(c.ID)
	if err != nil {
		clog.Warn("failed to load latest service, skipping", zap.Error(err))
		return false
	}
	if svc == nil {
		// Selection requires at least one service, so this should not
		// happen; skip rather than crash the batch.
		clog.Warn("eligible customer has no service record, skipping")
		return false
	}

	rendered := Render(tmpl.Body, BuildVariables(&c, svc, s.Workshop))

	if dryRun {
		clog.Info("dry run: would schedule follow-up",
			zap.String("phone", c.Phone),
			zap.String("message", rendered),
		)
		return true
	}

	entry := &model.FollowUpQueueEntry{
		CustomerID:  c.ID,
		ServiceID:   &svc.ID,
		TemplateID:  tmpl.ID,
		Trigger:     tmpl.Trigger,
		Message:     rendered,
		ScheduledAt: now.Add(time.Duration(tmpl.DelayMinutes) * time.Minute),
		Status:      model.FollowUpStatusPending,
	}
	if err := s.Entries.Create(entry); err != nil {
		clog.Warn("failed to create follow-up entry, skipping", zap.Error(err))
		return false
	}
	if err := s.Queue.Publish(queue.TopicFollowUpDispatch, queue.Job{FollowUpEntryID: entry.ID}); err != nil {
		// Entry stays pending; a later sweep or manual requeue picks it up.
		clog.Warn("failed to enqueue follow-up dispatch",
			zap.Int64("entry_id", entry.ID), zap.Error(err))
		return false
	}

	clog.Info("follow-up scheduled",
		zap.Int64("entry_id", entry.ID),
		zap.Int64("template_id", tmpl.ID),
	)
	return true
}
