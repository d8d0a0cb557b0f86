package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/config"
	"github.com/bengkelhub/wa-bridge/internal/model"
)

func serviceTemplate() *model.FollowUpTemplate {
	return &model.FollowUpTemplate{
		ID:              1,
		Name:            "Servis Selesai",
		Trigger:         model.TriggerServiceCompletion,
		Body:            "Halo {customer_name}, servis {service_type} selesai. Biaya {total_cost}. Salam, {workshop_name}.",
		Active:          true,
		WhatsAppEnabled: true,
	}
}

func testWorkshop() config.WorkshopConfig {
	return config.WorkshopConfig{Name: "Bengkel Jaya", Phone: "0211234567", Address: "Jl. Raya 1"}
}

func staleService(customerID int64) *model.ServiceRecord {
	return &model.ServiceRecord{
		ID:          customerID * 10,
		CustomerID:  customerID,
		ServiceType: "Servis Berkala",
		TotalCost:   850000,
		CompletedAt: time.Now().Add(-100 * 24 * time.Hour),
	}
}

func newScheduler(customers *mockCustomerRepo, templates *mockTemplateRepo, entries *mockFollowUpRepo, q *mockQueue) *Scheduler {
	return &Scheduler{
		Customers: customers,
		Templates: templates,
		Entries:   entries,
		Queue:     q,
		Workshop:  testWorkshop(),
		Log:       zap.NewNop(),
		Pace:      time.Millisecond,
	}
}

func TestRunBatchSchedulesEligibleCustomers(t *testing.T) {
	customers := &mockCustomerRepo{
		eligible: []model.Customer{
			{ID: 1, Name: "Budi", Phone: "08123456789", Active: true},
			{ID: 2, Name: "Siti", Phone: "08198765432", Active: true},
		},
		services: map[int64]*model.ServiceRecord{1: staleService(1), 2: staleService(2)},
	}
	entries := newMockFollowUpRepo()
	q := &mockQueue{}
	s := newScheduler(customers, &mockTemplateRepo{tmpl: serviceTemplate()}, entries, q)

	res, err := s.RunBatch(context.Background(), 10, false)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, entries.created, 2)

	first := entries.created[0]
	assert.Equal(t, int64(1), first.CustomerID)
	assert.Equal(t, model.TriggerServiceCompletion, first.Trigger)
	assert.Equal(t, model.FollowUpStatusPending, first.Status)
	assert.Contains(t, first.Message, "Halo Budi")
	assert.Contains(t, first.Message, "Rp 850.000")
	assert.Contains(t, first.Message, "Bengkel Jaya")
	assert.NotContains(t, first.Message, "{")

	require.Len(t, q.published, 2)
	assert.Equal(t, first.ID, q.published[0].FollowUpEntryID)
}

func TestRunBatchDryRunWritesNothing(t *testing.T) {
	customers := &mockCustomerRepo{
		eligible: []model.Customer{{ID: 1, Name: "Budi", Phone: "08123456789", Active: true}},
		services: map[int64]*model.ServiceRecord{1: staleService(1)},
	}
	entries := newMockFollowUpRepo()
	q := &mockQueue{}
	s := newScheduler(customers, &mockTemplateRepo{tmpl: serviceTemplate()}, entries, q)

	res, err := s.RunBatch(context.Background(), 10, true)

	require.NoError(t, err)
	// Created counts would-be entries; nothing is persisted or enqueued
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, entries.created)
	assert.Empty(t, q.published)
}

func TestRunBatchHonorsCooldown(t *testing.T) {
	customers := &mockCustomerRepo{
		eligible: []model.Customer{
			{ID: 1, Name: "Budi", Phone: "08123456789", Active: true},
			{ID: 2, Name: "Siti", Phone: "08198765432", Active: true},
		},
		services: map[int64]*model.ServiceRecord{1: staleService(1), 2: staleService(2)},
	}
	entries := newMockFollowUpRepo()
	entries.activeFor[1] = true // racing batch already scheduled customer 1
	q := &mockQueue{}
	s := newScheduler(customers, &mockTemplateRepo{tmpl: serviceTemplate()}, entries, q)

	res, err := s.RunBatch(context.Background(), 10, false)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, entries.created, 1)
	assert.Equal(t, int64(2), entries.created[0].CustomerID)
}

func TestRunBatchNoTemplateDoesNothing(t *testing.T) {
	customers := &mockCustomerRepo{
		eligible: []model.Customer{{ID: 1, Name: "Budi", Phone: "08123456789", Active: true}},
		services: map[int64]*model.ServiceRecord{1: staleService(1)},
	}
	entries := newMockFollowUpRepo()
	s := newScheduler(customers, &mockTemplateRepo{tmpl: nil}, entries, &mockQueue{})

	res, err := s.RunBatch(context.Background(), 10, false)

	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Empty(t, entries.created)
}

func TestRunBatchMissingServiceSkipsCustomer(t *testing.T) {
	customers := &mockCustomerRepo{
		eligible: []model.Customer{
			{ID: 1, Name: "Budi", Phone: "08123456789", Active: true},
			{ID: 2, Name: "Siti", Phone: "08198765432", Active: true},
		},
		services: map[int64]*model.ServiceRecord{2: staleService(2)}, // customer 1 has none
	}
	entries := newMockFollowUpRepo()
	q := &mockQueue{}
	s := newScheduler(customers, &mockTemplateRepo{tmpl: serviceTemplate()}, entries, q)

	res, err := s.RunBatch(context.Background(), 10, false)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
}

func TestRunBatchPublishFailureLeavesEntryPending(t *testing.T) {
	customers := &mockCustomerRepo{
		eligible: []model.Customer{{ID: 1, Name: "Budi", Phone: "08123456789", Active: true}},
		services: map[int64]*model.ServiceRecord{1: staleService(1)},
	}
	entries := newMockFollowUpRepo()
	q := &mockQueue{err: errors.New("broker unavailable")}
	s := newScheduler(customers, &mockTemplateRepo{tmpl: serviceTemplate()}, entries, q)

	res, err := s.RunBatch(context.Background(), 10, false)

	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
	// entry stays pending for a later sweep
	require.Len(t, entries.created, 1)
	assert.Equal(t, model.FollowUpStatusPending, entries.created[0].Status)
}

func TestRunBatchAppliesTemplateDelay(t *testing.T) {
	tmpl := serviceTemplate()
	tmpl.DelayMinutes = 60
	customers := &mockCustomerRepo{
		eligible: []model.Customer{{ID: 1, Name: "Budi", Phone: "08123456789", Active: true}},
		services: map[int64]*model.ServiceRecord{1: staleService(1)},
	}
	entries := newMockFollowUpRepo()
	s := newScheduler(customers, &mockTemplateRepo{tmpl: tmpl}, entries, &mockQueue{})

	_, err := s.RunBatch(context.Background(), 10, false)

	require.NoError(t, err)
	require.Len(t, entries.created, 1)
	delay := time.Until(entries.created[0].ScheduledAt)
	assert.Greater(t, delay, 55*time.Minute)
	assert.LessOrEqual(t, delay, 60*time.Minute)
}
