package followup

import (
	"context"
	"time"

	"github.com/bengkelhub/wa-bridge/internal/dispatch"
	"github.com/bengkelhub/wa-bridge/internal/model"
	"github.com/bengkelhub/wa-bridge/internal/queue"
)

type mockCustomerRepo struct {
	customers map[int64]*model.Customer
	eligible  []model.Customer
	services  map[int64]*model.ServiceRecord
	listErr   error
}

func (m *mockCustomerRepo) GetByID(id int64) (*model.Customer, error) {
	return m.customers[id], nil
}

func (m *mockCustomerRepo) ListEligibleForFollowUp(trigger string, staleBefore, cooldownSince time.Time, limit int) ([]model.Customer, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if len(m.eligible) > limit {
		return m.eligible[:limit], nil
	}
	return m.eligible, nil
}

func (m *mockCustomerRepo) GetLatestService(customerID int64) (*model.ServiceRecord, error) {
	return m.services[customerID], nil
}

type mockTemplateRepo struct {
	tmpl       *model.FollowUpTemplate
	usageBumps []int64
}

func (m *mockTemplateRepo) GetDefaultActive(trigger string) (*model.FollowUpTemplate, error) {
	return m.tmpl, nil
}

func (m *mockTemplateRepo) IncrementUsage(id int64) error {
	m.usageBumps = append(m.usageBumps, id)
	return nil
}

type mockFollowUpRepo struct {
	entries     map[int64]*model.FollowUpQueueEntry
	created     []*model.FollowUpQueueEntry
	sentIDs     []int64
	failedIDs   []int64
	lastError   string
	activeFor   map[int64]bool
	retryCounts map[int64]int
	nextID      int64
}

func newMockFollowUpRepo() *mockFollowUpRepo {
	return &mockFollowUpRepo{
		entries:     make(map[int64]*model.FollowUpQueueEntry),
		activeFor:   make(map[int64]bool),
		retryCounts: make(map[int64]int),
	}
}

func (m *mockFollowUpRepo) Create(entry *model.FollowUpQueueEntry) error {
	m.nextID++
	entry.ID = m.nextID
	m.created = append(m.created, entry)
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockFollowUpRepo) GetByID(id int64) (*model.FollowUpQueueEntry, error) {
	return m.entries[id], nil
}

func (m *mockFollowUpRepo) HasActiveWithin(customerID int64, trigger string, since time.Time) (bool, error) {
	return m.activeFor[customerID], nil
}

func (m *mockFollowUpRepo) MarkSent(id int64) error {
	m.sentIDs = append(m.sentIDs, id)
	if e, ok := m.entries[id]; ok {
		e.Status = model.FollowUpStatusSent
	}
	return nil
}

func (m *mockFollowUpRepo) MarkFailed(id int64, lastError string) error {
	m.failedIDs = append(m.failedIDs, id)
	m.lastError = lastError
	if e, ok := m.entries[id]; ok {
		e.Status = model.FollowUpStatusFailed
	}
	return nil
}

func (m *mockFollowUpRepo) BumpRetry(id int64) (int, error) {
	m.retryCounts[id]++
	return m.retryCounts[id], nil
}

type mockQueue struct {
	published []queue.Job
	err       error
}

func (m *mockQueue) Publish(topic string, payload any) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, payload.(queue.Job))
	return nil
}

func (m *mockQueue) Subscribe(topic string, handler func(payload any) error) error { return nil }

type mockSender struct {
	result dispatch.SendResult
	refs   []dispatch.SendRef
	phones []string
	texts  []string
}

func (m *mockSender) Send(ctx context.Context, phone, content string, ref dispatch.SendRef) dispatch.SendResult {
	m.phones = append(m.phones, phone)
	m.texts = append(m.texts, content)
	m.refs = append(m.refs, ref)
	return m.result
}
