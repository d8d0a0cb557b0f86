package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicFollowUpDispatch carries follow-up queue entry ids to the dispatch
// worker.
const TopicFollowUpDispatch = "followup_dispatch"

// Job is the payload published for one follow-up dispatch.
type Job struct {
	FollowUpEntryID int64 `json:"followup_entry_id"`
}

// Queue is the asynchronous hand-off between the scheduler and the
// dispatch worker. At-least-once: handlers must be idempotent.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is a channelless in-process queue with bounded retry,
// used in tests and single-process deployments without a broker.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup
	log      *zap.Logger
}

func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		log:      log,
	}
}

// jobEnvelope wraps a payload with retry bookkeeping.
type jobEnvelope struct {
	payload    any
	retryCount int
	maxRetries int
}

// Publish hands the payload to all subscribers asynchronously.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := jobEnvelope{payload: payload, maxRetries: 3}
	for _, handler := range handlers {
		q.wg.Add(1)
		go q.processJob(topic, handler, job)
	}
	return nil
}

// Wait blocks until every published job has been acked or permanently
// dropped. Single-process deployments call this before exiting so no job
// is abandoned mid-flight.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// processJob runs the handler with retry and linear backoff.
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job jobEnvelope) {
	defer q.wg.Done()
	for {
		err := handler(job.payload)
		if err == nil {
			return // ack
		}

		job.retryCount++
		q.log.Warn("queue job failed",
			zap.String("topic", topic),
			zap.Int("attempt", job.retryCount),
			zap.Int("max_retries", job.maxRetries),
			zap.Error(err),
		)
		if job.retryCount > job.maxRetries {
			q.log.Error("queue job permanently failed",
				zap.String("topic", topic),
				zap.Int("attempts", job.retryCount),
			)
			return // no requeue
		}
		time.Sleep(time.Duration(job.retryCount*500) * time.Millisecond)
	}
}

// Subscribe registers a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
