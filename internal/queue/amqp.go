package queue

import (
	"encoding/json"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const maxDeliveryRetries = 3

// AMQPQueue is the RabbitMQ-backed Queue used when the scheduler and the
// dispatch worker run as separate processes.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

func NewAMQPQueue(url string, log *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch, log: log}, nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Publish marshals the payload as JSON onto a durable queue.
func (q *AMQPQueue) Publish(topic string, payload any) error {
	queue, err := q.declare(topic)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe consumes the topic with manual acks. A failing handler gets the
// delivery republished with an incremented x-retry-count header; after
// maxDeliveryRetries the message is dropped (the worker has already marked
// the entry failed in the database by then).
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	queue, err := q.declare(topic)
	if err != nil {
		return err
	}
	if err := q.ch.Qos(1, 0, false); err != nil { // one dispatch in flight at a time
		return err
	}
	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				retries := retryCount(d.Headers)
				if retries < maxDeliveryRetries {
					q.republish(queue.Name, d.Body, retries+1)
				} else {
					q.log.Error("dropping message after max delivery retries",
						zap.String("topic", topic),
						zap.Int("retries", retries),
						zap.Error(err),
					)
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

func (q *AMQPQueue) republish(name string, body []byte, retries int) {
	err := q.ch.Publish("", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Headers:      amqp.Table{"x-retry-count": int32(retries)},
	})
	if err != nil {
		q.log.Error("failed to republish message for retry", zap.Error(err))
	}
}

func retryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

var _ Queue = (*AMQPQueue)(nil)
